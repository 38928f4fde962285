package sema

import (
	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/types"
)

func (in *Inferer) block(b *ast.Block) {
	for _, s := range b.Stmts {
		in.stmt(s)
	}
}

func (in *Inferer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		in.expr(s.X)
	case *ast.ReturnStmt:
		in.ret(s)
	case *ast.IfStmt:
		in.cond(s.Cond)
		in.block(s.Then)
		if s.Else != nil {
			in.block(s.Else)
		}
	case *ast.WhileStmt:
		in.cond(s.Cond)
		in.block(s.Body)
	case *ast.ForStmt:
		in.loop(s)
	}
}

// terminates reports whether control cannot reach the end of b. There is no
// break statement, so a while loop on the literal true never exits.
func terminates(b *ast.Block) bool {
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.IfStmt:
			if s.Else != nil && terminates(s.Then) && terminates(s.Else) {
				return true
			}
		case *ast.WhileStmt:
			if l, ok := s.Cond.(*ast.LoadExpr); ok && l.Kind == ast.LoadConstant &&
				l.Literal.Class == ast.BoolLiteral && l.Literal.Bool {
				return true
			}
		}
	}
	return false
}

func (in *Inferer) cond(x ast.Expr) {
	t := in.expr(x)
	if t != nil && t != types.Bool {
		in.report(x, errz.ErrType, errz.E2009, errz.Text{Value: "condition"}, errz.Token{Token: x.Token()},
			errz.Text{Value: "has type"}, errz.TypeName{Name: t.String()}, errz.Text{Value: "instead of bool"})
	}
}

func (in *Inferer) ret(s *ast.ReturnStmt) {
	if s.Function == nil || s.Function.Signature() == nil {
		if s.Value != nil {
			in.expr(s.Value)
		}
		return
	}
	want := s.Function.Signature().Return
	if s.Value == nil {
		if want != types.Void {
			in.report(s, errz.ErrType, errz.E2003, errz.Token{Token: s.Token()},
				errz.Text{Value: "without value in function returning"}, errz.TypeName{Name: want.String()})
		}
		return
	}
	t := in.expr(s.Value)
	if t == nil {
		return
	}
	if want == types.Void {
		in.report(s, errz.ErrType, errz.E2003, errz.Text{Value: "unexpected return value in void function"},
			errz.Token{Token: s.Token()})
		return
	}
	if !types.Identical(t, want) && !types.CanWiden(t, want) {
		in.report(s, errz.ErrType, errz.E2003, errz.Text{Value: "cannot return"}, errz.TypeName{Name: t.String()},
			errz.Text{Value: "from function returning"}, errz.TypeName{Name: want.String()}, errz.Token{Token: s.Token()})
		return
	}
	s.Value = in.coerce(s.Value, want)
}

func (in *Inferer) loop(s *ast.ForStmt) {
	ok := in.iterator(s)
	in.state[s.It.ID()] = done
	if s.Index != nil {
		in.state[s.Index.ID()] = done
	}
	if ok {
		in.block(s.Body)
	}
}

func (in *Inferer) iterator(s *ast.ForStmt) bool {
	if s.It.Type() != nil {
		return true
	}
	if s.IsRange() {
		lt, ht := in.expr(s.Low), in.expr(s.High)
		if lt == nil || ht == nil {
			return false
		}
		t, widenLow, widenHigh, ok := types.Unify(lt, ht)
		if !ok || !isInteger(t) {
			in.report(s, errz.ErrType, errz.E2001, errz.Text{Value: "range bounds must be integers of one category, got"},
				errz.TypeName{Name: lt.String()}, errz.Text{Value: "and"}, errz.TypeName{Name: ht.String()},
				errz.Token{Token: s.Token()})
			return false
		}
		if widenLow {
			s.Low = in.cast(s.Low, t)
		}
		if widenHigh {
			s.High = in.cast(s.High, t)
		}
		s.It.SetType(t)
		return true
	}
	at := in.expr(s.Array)
	if at == nil {
		return false
	}
	arr, ok := at.(*types.Array)
	if !ok {
		in.report(s, errz.ErrType, errz.E2001, errz.Text{Value: "cannot iterate over"}, errz.Token{Token: s.Array.Token()},
			errz.Text{Value: "of type"}, errz.TypeName{Name: at.String()})
		return false
	}
	s.It.SetType(arr.Elem)
	if s.Index != nil {
		s.Index.SetType(types.S32)
	}
	return true
}
