package sema

import (
	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

// expr infers e and returns its type, or nil after a reported error.
// Each expression is visited once, so a failed one reports only once.
func (in *Inferer) expr(e ast.Expr) types.Type {
	if t := e.Type(); t != nil {
		return t
	}
	if in.seen[e.ID()] {
		return nil
	}
	in.seen[e.ID()] = true
	var t types.Type
	switch e := e.(type) {
	case *ast.LoadExpr:
		t = in.load(e)
	case *ast.OperandExpr:
		t = in.operand(e)
	case *ast.CallExpr:
		t = in.call(e)
	case *ast.ArrayAccessExpr:
		t = in.index(e)
	case *ast.CastExpr:
		t = in.convert(e)
	}
	if t != nil {
		e.SetType(t)
	}
	return t
}

func (in *Inferer) load(e *ast.LoadExpr) types.Type {
	switch e.Kind {
	case ast.LoadConstant:
		return literalType(e.Literal)
	case ast.LoadVariable:
		if e.Decl == nil {
			return nil
		}
		return in.jumpTo(e.Decl)
	case ast.LoadMember:
		ot := in.expr(e.Object)
		if ot == nil {
			return nil
		}
		st, ok := ot.(*types.Struct)
		if !ok {
			in.report(e, errz.ErrType, errz.E1006, errz.Text{Value: "type"}, errz.TypeName{Name: ot.String()},
				errz.Text{Value: "has no member"}, errz.Token{Token: e.Token()})
			return nil
		}
		decl, ok := in.structs[st]
		if !ok {
			return nil
		}
		d, ok := decl.Scope.Lookup(e.Name())
		if !ok {
			in.report(e, errz.ErrName, errz.E1006, errz.Text{Value: "struct " + st.Name + " has no member"},
				errz.Token{Token: e.Token()})
			return nil
		}
		m := d.(*ast.Variable)
		e.Member = m
		return m.Type()
	}
	return nil
}

func literalType(l ast.Literal) types.Type {
	switch l.Class {
	case ast.FloatLiteral:
		return types.F64
	case ast.BoolLiteral:
		return types.Bool
	}
	switch {
	case l.FitsS32():
		return types.S32
	case l.FitsS64():
		return types.S64
	default:
		return types.U64
	}
}

func (in *Inferer) operand(e *ast.OperandExpr) types.Type {
	switch {
	case e.Op == token.Set:
		return in.assign(e)
	case e.Op.IsCompound():
		return in.compound(e)
	case e.IsUnary():
		return in.unary(e)
	default:
		return in.binary(e)
	}
}

func (in *Inferer) unsupported(e *ast.OperandExpr, t types.Type) {
	in.report(e, errz.ErrUnsupported, errz.E3001, errz.Text{Value: "operator"}, errz.Operator{Operator: e.Op},
		errz.Text{Value: "is not defined for"}, errz.TypeName{Name: t.String()})
}

func (in *Inferer) binary(e *ast.OperandExpr) types.Type {
	lt, rt := in.expr(e.LHS), in.expr(e.RHS)
	if lt == nil || rt == nil {
		return nil
	}
	switch {
	case e.Op.IsLogical():
		if lt != types.Bool || rt != types.Bool {
			in.mismatch(e, lt, rt)
			return nil
		}
		e.Term = types.Bool
		return types.Bool
	case e.Op.IsComparison():
		if (e.Op == token.Equals || e.Op == token.NotEquals) && lt == types.Bool && rt == types.Bool {
			e.Term = types.Bool
			return types.Bool
		}
		t := in.unify(e, lt, rt, (*types.Primitive).IsNumeric)
		if t == nil {
			return nil
		}
		e.Term = t
		return types.Bool
	case e.Op.IsArithmetic():
		t := in.unify(e, lt, rt, (*types.Primitive).IsNumeric)
		e.Term = t
		return t
	case e.Op == token.LShift || e.Op == token.RShift:
		if !isInteger(lt) || !isInteger(rt) {
			in.unsupported(e, lt)
			return nil
		}
		if rt != lt {
			e.RHS = in.cast(e.RHS, lt)
		}
		e.Term = lt
		return lt
	case e.Op.IsBitwise():
		t := in.unify(e, lt, rt, (*types.Primitive).IsInteger)
		e.Term = t
		return t
	}
	in.unsupported(e, lt)
	return nil
}

// unify brings both operands of e to their common type and checks it with
// accept. Narrower operands are wrapped in casts.
func (in *Inferer) unify(e *ast.OperandExpr, lt, rt types.Type, accept func(*types.Primitive) bool) types.Type {
	t, widenLeft, widenRight, ok := types.Unify(lt, rt)
	if !ok {
		in.mismatch(e, lt, rt)
		return nil
	}
	p, isPrim := types.AsPrimitive(t)
	if !isPrim || !accept(p) {
		in.unsupported(e, t)
		return nil
	}
	if widenLeft {
		e.LHS = in.cast(e.LHS, t)
	}
	if widenRight {
		e.RHS = in.cast(e.RHS, t)
	}
	return t
}

func (in *Inferer) mismatch(e *ast.OperandExpr, lt, rt types.Type) {
	in.report(e, errz.ErrType, errz.E2001, errz.Text{Value: "incompatible operand types"},
		errz.TypeName{Name: lt.String()}, errz.Text{Value: "and"}, errz.TypeName{Name: rt.String()},
		errz.Text{Value: "for"}, errz.Token{Token: e.Token()})
}

func isInteger(t types.Type) bool {
	p, ok := types.AsPrimitive(t)
	return ok && p.IsInteger()
}

func isNumeric(t types.Type) bool {
	p, ok := types.AsPrimitive(t)
	return ok && p.IsNumeric()
}

func (in *Inferer) unary(e *ast.OperandExpr) types.Type {
	x := e.Operand()
	t := in.expr(x)
	if t == nil {
		return nil
	}
	p, _ := types.AsPrimitive(t)
	var ok bool
	switch e.Op {
	case token.Not:
		ok = t == types.Bool && !e.IsPostfix()
	case token.Sub:
		ok = p != nil && p.IsNumeric() && p.IsSigned() && !e.IsPostfix()
	case token.BinaryNot:
		ok = p != nil && p.IsInteger() && !e.IsPostfix()
	case token.Increment, token.Decrement:
		if !addressable(x) {
			in.report(e, errz.ErrType, errz.E2004, errz.Operator{Operator: e.Op},
				errz.Text{Value: "needs an addressable operand"}, errz.Token{Token: x.Token()})
			return nil
		}
		if isConst(x) {
			in.report(e, errz.ErrType, errz.E2010, errz.Text{Value: "cannot modify constant"}, errz.Token{Token: x.Token()})
			return nil
		}
		ok = isNumeric(t)
	}
	if !ok {
		in.unsupported(e, t)
		return nil
	}
	e.Term = t
	return t
}

// addressable reports whether x denotes storage: a variable, a member of
// addressable storage or an element of an addressable array.
func addressable(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.LoadExpr:
		switch x.Kind {
		case ast.LoadVariable:
			_, ok := x.Decl.(*ast.Variable)
			return ok
		case ast.LoadMember:
			return addressable(x.Object)
		}
	case *ast.ArrayAccessExpr:
		return addressable(x.Array)
	}
	return false
}

func isConst(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.LoadExpr:
		switch x.Kind {
		case ast.LoadVariable:
			v, ok := x.Decl.(*ast.Variable)
			return ok && v.IsConst()
		case ast.LoadMember:
			return isConst(x.Object)
		}
	case *ast.ArrayAccessExpr:
		return isConst(x.Array)
	}
	return false
}

func (in *Inferer) checkTarget(e *ast.OperandExpr) bool {
	if !addressable(e.LHS) {
		in.report(e, errz.ErrType, errz.E2004, errz.Text{Value: "cannot assign to"}, errz.Token{Token: e.LHS.Token()})
		return false
	}
	if isConst(e.LHS) {
		in.report(e, errz.ErrType, errz.E2010, errz.Text{Value: "cannot assign to constant"}, errz.Token{Token: e.LHS.Token()})
		return false
	}
	return true
}

func (in *Inferer) assign(e *ast.OperandExpr) types.Type {
	lt := in.expr(e.LHS)
	rt := in.expr(e.RHS)
	if lt == nil || rt == nil || !in.checkTarget(e) {
		return nil
	}
	e.RHS = in.coerce(e.RHS, lt)
	e.Term = lt
	return lt
}

func (in *Inferer) compound(e *ast.OperandExpr) types.Type {
	lt := in.expr(e.LHS)
	rt := in.expr(e.RHS)
	if lt == nil || rt == nil || !in.checkTarget(e) {
		return nil
	}
	t, widenLeft, widenRight, ok := types.Unify(lt, rt)
	if !ok || widenLeft {
		in.mismatch(e, lt, rt)
		return nil
	}
	if !isNumeric(t) {
		in.unsupported(e, t)
		return nil
	}
	if widenRight {
		e.RHS = in.cast(e.RHS, t)
	}
	e.Term = lt
	return lt
}

func (in *Inferer) call(e *ast.CallExpr) types.Type {
	ct := in.expr(e.Callee)
	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = in.expr(a)
	}
	if ct == nil {
		return nil
	}
	c, ok := ct.(*types.Callable)
	if !ok {
		in.report(e, errz.ErrType, errz.E2006, errz.Token{Token: e.Callee.Token()},
			errz.Text{Value: "of type"}, errz.TypeName{Name: ct.String()}, errz.Text{Value: "is not callable"})
		return nil
	}
	if len(e.Args) != len(c.Args) {
		in.typeError(e, errz.E2005, "wrong number of arguments: want %d, got %d in call of", len(c.Args), len(e.Args))
		return nil
	}
	for i, a := range e.Args {
		if argTypes[i] == nil {
			return nil
		}
		e.Args[i] = in.coerce(a, c.Args[i])
	}
	return c.Return
}

func (in *Inferer) index(e *ast.ArrayAccessExpr) types.Type {
	at := in.expr(e.Array)
	it := in.expr(e.Index)
	if at == nil || it == nil {
		return nil
	}
	arr, ok := at.(*types.Array)
	if !ok {
		in.report(e, errz.ErrType, errz.E2001, errz.Text{Value: "cannot index"}, errz.Token{Token: e.Array.Token()},
			errz.Text{Value: "of type"}, errz.TypeName{Name: at.String()})
		return nil
	}
	if !isInteger(it) {
		in.report(e, errz.ErrType, errz.E2001, errz.Text{Value: "array index must be an integer, got"},
			errz.TypeName{Name: it.String()}, errz.Token{Token: e.Index.Token()})
		return nil
	}
	if it != types.S32 {
		e.Index = in.cast(e.Index, types.S32)
	}
	return arr.Elem
}

func (in *Inferer) convert(e *ast.CastExpr) types.Type {
	xt := in.expr(e.X)
	if e.Target == nil || xt == nil {
		return nil
	}
	to := in.typeRef(e.Target)
	if to == nil {
		return nil
	}
	from, fromOK := types.AsPrimitive(xt)
	target, toOK := types.AsPrimitive(to)
	if !fromOK || !toOK || !(from.IsNumeric() || from.IsBool()) || !(target.IsNumeric() || target.IsBool()) {
		in.report(e, errz.ErrType, errz.E2001, errz.Text{Value: "cannot convert"}, errz.TypeName{Name: xt.String()},
			errz.Text{Value: "to"}, errz.TypeName{Name: to.String()}, errz.Token{Token: e.Token()})
		return nil
	}
	return to
}
