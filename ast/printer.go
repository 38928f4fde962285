package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/ipa-lang/ipa/types"
)

// Fprint writes an indented dump of the unit to w. Every expression is
// followed by its inferred type, so two dumps of the same unit differ
// exactly when inference changed something.
func Fprint(w io.Writer, u *Unit) error {
	p := &printer{w: w}
	p.printf("module %s\n", u.Name())
	for _, d := range u.Decls() {
		p.decl(d, 1)
	}
	return p.err
}

// Dump returns the output of Fprint as a string.
func Dump(u *Unit) string {
	var sb strings.Builder
	_ = Fprint(&sb, u)
	return sb.String()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(depth int, format string, args ...any) {
	p.printf("%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func typeName(t types.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func (p *printer) decl(d Decl, depth int) {
	switch d := d.(type) {
	case *Variable:
		if d.Value != nil {
			p.line(depth, "var %s: %s = %s", d.Name(), typeName(d.Type()), p.expr(d.Value))
		} else {
			p.line(depth, "var %s: %s", d.Name(), typeName(d.Type()))
		}
	case *Struct:
		p.line(depth, "struct %s", d.Name())
		for _, m := range d.Members() {
			p.decl(m, depth+1)
		}
	case *Function:
		p.line(depth, "func %s %s", d.Name(), typeName(d.Type()))
		for _, a := range d.Args {
			p.line(depth+1, "arg %s: %s", a.Name(), typeName(a.Type()))
		}
		for _, l := range d.Locals {
			p.line(depth+1, "local %s: %s", l.Name(), typeName(l.Type()))
		}
		p.block(d.Body, depth+1)
	}
}

func (p *printer) block(b *Block, depth int) {
	for _, s := range b.Stmts {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	switch s := s.(type) {
	case *ExprStmt:
		p.line(depth, "%s", p.expr(s.X))
	case *ReturnStmt:
		if s.Value == nil {
			p.line(depth, "return")
		} else {
			p.line(depth, "return %s", p.expr(s.Value))
		}
	case *IfStmt:
		p.line(depth, "if %s", p.expr(s.Cond))
		p.block(s.Then, depth+1)
		if s.Else != nil {
			p.line(depth, "else")
			p.block(s.Else, depth+1)
		}
	case *WhileStmt:
		p.line(depth, "while %s", p.expr(s.Cond))
		p.block(s.Body, depth+1)
	case *ForStmt:
		if s.IsRange() {
			p.line(depth, "for %s: %s in %s..%s", s.It.Name(), typeName(s.It.Type()), p.expr(s.Low), p.expr(s.High))
		} else {
			p.line(depth, "for %s: %s in %s", s.It.Name(), typeName(s.It.Type()), p.expr(s.Array))
		}
		p.block(s.Body, depth+1)
	}
}

func (p *printer) expr(e Expr) string {
	var s string
	switch e := e.(type) {
	case *LoadExpr:
		switch e.Kind {
		case LoadConstant:
			s = e.Literal.String()
		case LoadMember:
			s = p.expr(e.Object) + "." + e.Name()
		default:
			s = e.Name()
		}
	case *OperandExpr:
		switch {
		case e.LHS == nil:
			s = fmt.Sprintf("(%s%s)", e.Op, p.expr(e.RHS))
		case e.RHS == nil:
			s = fmt.Sprintf("(%s%s)", p.expr(e.LHS), e.Op)
		default:
			s = fmt.Sprintf("(%s %s %s)", p.expr(e.LHS), e.Op, p.expr(e.RHS))
		}
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = p.expr(a)
		}
		s = fmt.Sprintf("%s(%s)", p.expr(e.Callee), strings.Join(args, ", "))
	case *ArrayAccessExpr:
		s = fmt.Sprintf("%s[%s]", p.expr(e.Array), p.expr(e.Index))
	case *CastExpr:
		s = fmt.Sprintf("cast(%s)", p.expr(e.X))
	}
	return s + ":" + typeName(e.Type())
}
