package ast

import (
	"fmt"
	"strings"

	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

// LoadKind tells the three shapes of a LoadExpr apart.
type LoadKind uint8

const (
	LoadConstant LoadKind = iota
	LoadVariable
	LoadMember
)

// LoadExpr loads a constant, a variable or function, or a struct member.
type LoadExpr struct {
	exprBase
	Kind LoadKind
	// Literal is the parsed constant of a LoadConstant.
	Literal Literal
	// Decl is the declaration a LoadVariable is bound to, nil until
	// resolved.
	Decl Decl
	// Object is the struct value of a LoadMember; the token names the
	// member.
	Object Expr
	// Member is bound by the type inferer for a LoadMember.
	Member *Variable
}

// Name returns the identifier or member name.
func (e *LoadExpr) Name() string { return e.tok.Literal }

// IsResolved reports whether a LoadVariable is bound.
func (e *LoadExpr) IsResolved() bool { return e.Decl != nil }

func (e *LoadExpr) String() string {
	switch e.Kind {
	case LoadConstant:
		return e.Literal.String()
	case LoadMember:
		return e.Object.String() + "." + e.tok.Literal
	default:
		return e.tok.Literal
	}
}

// OperandExpr applies an operator. For unary operators exactly one of LHS
// and RHS is set: RHS alone is a prefix form, LHS alone a postfix form.
type OperandExpr struct {
	exprBase
	Op  token.Operator
	LHS Expr
	RHS Expr
	// Term is the type the operation is performed in, which differs from
	// the result type for comparisons.
	Term types.Type
}

// IsUnary reports whether only one operand is present.
func (e *OperandExpr) IsUnary() bool { return e.LHS == nil || e.RHS == nil }

// IsPostfix reports whether the operator follows its single operand.
func (e *OperandExpr) IsPostfix() bool { return e.RHS == nil }

// Operand returns the single operand of a unary expression.
func (e *OperandExpr) Operand() Expr {
	if e.LHS != nil {
		return e.LHS
	}
	return e.RHS
}

func (e *OperandExpr) String() string {
	switch {
	case e.LHS == nil:
		return fmt.Sprintf("(%s%s)", e.Op, e.RHS)
	case e.RHS == nil:
		return fmt.Sprintf("(%s%s)", e.LHS, e.Op)
	default:
		return fmt.Sprintf("(%s %s %s)", e.LHS, e.Op, e.RHS)
	}
}

// CallExpr calls Callee with Args.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

// ArrayAccessExpr indexes into a fixed-size array.
type ArrayAccessExpr struct {
	exprBase
	Array Expr
	Index Expr
}

func (e *ArrayAccessExpr) String() string {
	return fmt.Sprintf("%s[%s]", e.Array, e.Index)
}

// CastExpr converts X. Target is the written type of an explicit cast and
// nil for casts inserted by the type inferer, whose type is set directly.
type CastExpr struct {
	exprBase
	X      Expr
	Target *TypeRef
}

// IsImplicit reports whether the type inferer inserted the cast.
func (e *CastExpr) IsImplicit() bool { return e.Target == nil }

func (e *CastExpr) String() string {
	switch {
	case e.Target != nil:
		return fmt.Sprintf("cast(%s, %s)", e.Target, e.X)
	case e.typ != nil:
		return fmt.Sprintf("cast(%s, %s)", e.typ, e.X)
	default:
		return fmt.Sprintf("cast(?, %s)", e.X)
	}
}
