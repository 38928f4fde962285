package ast

import (
	"fmt"
	"strings"
)

// Block is an ordered list of statements together with the locals declared
// directly in it.
type Block struct {
	node
	Stmts  []Stmt
	Locals []*Variable
}

func (b *Block) String() string {
	parts := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// IfStmt runs Then when Cond holds and Else otherwise. Else may be nil.
type IfStmt struct {
	node
	Cond Expr
	Then *Block
	Else *Block
}

func (s *IfStmt) stmtNode() {}

func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if %s %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if %s %s else %s", s.Cond, s.Then, s.Else)
}

// WhileStmt runs Body as long as Cond holds.
type WhileStmt struct {
	node
	Cond Expr
	Body *Block
}

func (s *WhileStmt) stmtNode() {}

func (s *WhileStmt) String() string {
	return fmt.Sprintf("while %s %s", s.Cond, s.Body)
}

// ForStmt iterates either over the half-open range [Low, High) or over the
// elements of Array. Index is only set for array iteration and may be nil.
type ForStmt struct {
	node
	It    *Variable
	Index *Variable
	Low   Expr
	High  Expr
	Array Expr
	Body  *Block
}

func (s *ForStmt) stmtNode() {}

// IsRange reports whether the loop iterates over a numeric range.
func (s *ForStmt) IsRange() bool { return s.Array == nil }

func (s *ForStmt) String() string {
	if s.IsRange() {
		return fmt.Sprintf("for %s in %s..%s %s", s.It.Name(), s.Low, s.High, s.Body)
	}
	if s.Index != nil {
		return fmt.Sprintf("for %s, %s in %s %s", s.It.Name(), s.Index.Name(), s.Array, s.Body)
	}
	return fmt.Sprintf("for %s in %s %s", s.It.Name(), s.Array, s.Body)
}

// ReturnStmt leaves Function, with a value unless Value is nil.
type ReturnStmt struct {
	node
	Value    Expr
	Function *Function
}

func (s *ReturnStmt) stmtNode() {}

func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	node
	X Expr
}

func (s *ExprStmt) stmtNode() {}

func (s *ExprStmt) String() string { return s.X.String() }
