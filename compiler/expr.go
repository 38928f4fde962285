package compiler

import (
	"math"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

type placeKind uint8

const (
	placeFrame placeKind = iota
	placeStatic
	placeIndex
)

// place is a storage location an expression denotes.
type place struct {
	kind placeKind
	// slot is the value for placeFrame and the array base for placeIndex.
	slot  slot
	addr  uint32
	index value
	typ   types.Type
	node  ast.Node
}

func (fc *funcCompiler) at(n ast.Node) {
	fc.code.at(n.Token())
}

func sized(t types.Type, off op.Code) op.Code {
	base, _ := op.SizeFamily(t.Size())
	return base + off
}

func typed(t types.Type, off op.Code) op.Code {
	base, _ := op.TypeFamily(kindOf(t))
	return base + off
}

// expr materializes e into a frame slot.
func (fc *funcCompiler) expr(e ast.Expr) (value, bool) {
	if e.Type() == nil {
		fc.c.internal(e, "untyped expression")
		return value{}, false
	}
	fc.at(e)
	switch e := e.(type) {
	case *ast.LoadExpr:
		switch e.Kind {
		case ast.LoadConstant:
			return fc.loadConstant(e.Type(), literalBits(e.Literal, e.Type())), true
		case ast.LoadVariable:
			if f, ok := e.Decl.(*ast.Function); ok {
				dst := fc.code.temp(types.U32)
				fc.code.emitABx(sized(types.U32, op.LoadStatic), dst.slot, fc.c.addrs[f])
				return dst, true
			}
		}
		return fc.loadPlace(e)
	case *ast.ArrayAccessExpr:
		return fc.loadPlace(e)
	case *ast.OperandExpr:
		return fc.operand(e)
	case *ast.CallExpr:
		return fc.call(e)
	case *ast.CastExpr:
		return fc.cast(e)
	}
	fc.c.internal(e, "unknown expression")
	return value{}, false
}

func literalBits(l ast.Literal, t types.Type) uint64 {
	switch l.Class {
	case ast.FloatLiteral:
		if t == types.F32 {
			return uint64(math.Float32bits(float32(l.Float)))
		}
		return math.Float64bits(l.Float)
	case ast.BoolLiteral:
		if l.Bool {
			return 1
		}
		return 0
	}
	return l.Int
}

func (fc *funcCompiler) loadConstant(t types.Type, bits uint64) value {
	dst := fc.code.temp(t)
	fc.code.emitABx(sized(t, op.LoadConstant), dst.slot, fc.c.constant(t.Size(), bits))
	return dst
}

func (fc *funcCompiler) loadPlace(e ast.Expr) (value, bool) {
	p, ok := fc.place(e)
	if !ok {
		return value{}, false
	}
	v, ok := fc.load(p)
	fc.done(p)
	return v, ok
}

// place resolves the storage an addressable expression denotes.
func (fc *funcCompiler) place(e ast.Expr) (place, bool) {
	switch e := e.(type) {
	case *ast.LoadExpr:
		switch e.Kind {
		case ast.LoadVariable:
			v, ok := e.Decl.(*ast.Variable)
			if !ok {
				break
			}
			if s, ok := fc.slots[v]; ok {
				return place{kind: placeFrame, slot: s, typ: v.Type(), node: e}, true
			}
			if addr, ok := fc.c.addrs[v]; ok {
				return place{kind: placeStatic, addr: addr, typ: v.Type(), node: e}, true
			}
			fc.c.internal(e, "variable without storage")
			return place{}, false
		case ast.LoadMember:
			p, ok := fc.place(e.Object)
			if !ok {
				return p, false
			}
			st, _ := p.typ.(*types.Struct)
			if st == nil {
				fc.c.internal(e, "member of non-struct")
				return p, false
			}
			f, found := st.Field(e.Name())
			if !found {
				fc.c.internal(e, "unknown member")
				return p, false
			}
			switch p.kind {
			case placeFrame:
				p.slot.off += f.Offset
			case placeStatic:
				p.addr += f.Offset
			default:
				fc.done(p)
				fc.c.unsupported(e, "member of array element")
				return p, false
			}
			p.typ, p.node = f.Type, e
			return p, true
		}
	case *ast.ArrayAccessExpr:
		base, ok := fc.place(e.Array)
		if !ok {
			return base, false
		}
		arr, _ := base.typ.(*types.Array)
		switch {
		case arr == nil:
			fc.c.internal(e, "index of non-array")
			return base, false
		case base.kind != placeFrame:
			fc.c.unsupported(e, "array %s must be a local", e.Array)
			return base, false
		}
		if _, prim := types.AsPrimitive(arr.Elem); !prim {
			fc.c.unsupported(e, "array of %s", arr.Elem)
			return base, false
		}
		idx, ok := fc.expr(e.Index)
		if !ok {
			return base, false
		}
		return place{kind: placeIndex, slot: base.slot, index: idx, typ: arr.Elem, node: e}, true
	}
	fc.c.unsupported(e, "%s is not addressable", e)
	return place{}, false
}

// done releases the index held by p.
func (fc *funcCompiler) done(p place) {
	if p.kind == placeIndex {
		fc.code.release(p.index)
	}
}

func (fc *funcCompiler) load(p place) (value, bool) {
	size := p.typ.Size()
	switch p.kind {
	case placeFrame:
		return value{slot: p.slot, size: size}, true
	case placeStatic:
		if types.IsAggregate(p.typ) {
			fc.c.unsupported(p.node, "%s value in static storage", p.typ)
			return value{}, false
		}
		dst := fc.code.temp(p.typ)
		fc.code.emitABx(sized(p.typ, op.LoadStatic), dst.slot, p.addr)
		return dst, true
	default:
		dst := fc.code.temp(p.typ)
		fc.code.emitABC(sized(p.typ, op.LoadIndex), dst.slot, p.slot, p.index.slot)
		return dst, true
	}
}

func (fc *funcCompiler) store(p place, v value) {
	switch p.kind {
	case placeFrame:
		if v.slot == p.slot {
			return
		}
		if types.IsAggregate(p.typ) {
			fc.code.emitABC(op.Move, v.slot, p.slot, imm(p.typ.Size()))
			return
		}
		fc.code.emitABC(sized(p.typ, op.SetLocal), v.slot, p.slot, imm(0))
	case placeStatic:
		if types.IsAggregate(p.typ) {
			fc.c.unsupported(p.node, "%s value in static storage", p.typ)
			return
		}
		fc.code.emitABx(sized(p.typ, op.SetStatic), v.slot, p.addr)
	default:
		fc.code.emitABC(sized(p.typ, op.SetIndex), v.slot, p.slot, p.index.slot)
	}
}

func (fc *funcCompiler) operand(e *ast.OperandExpr) (value, bool) {
	switch {
	case e.Op == token.Set:
		return fc.assign(e)
	case e.Op.IsCompound():
		return fc.compound(e)
	case e.Op == token.Increment || e.Op == token.Decrement:
		return fc.step(e)
	case e.IsUnary():
		return fc.unary(e)
	case e.Op == token.And || e.Op == token.Or:
		return fc.logical(e)
	}
	return fc.binary(e)
}

// binaryCode returns the opcode of a binary operator in type t.
func binaryCode(o token.Operator, t types.Type) (op.Code, bool) {
	switch o {
	case token.Add:
		return typed(t, op.Add), true
	case token.Sub:
		return typed(t, op.Sub), true
	case token.Mul:
		return typed(t, op.Mul), true
	case token.Div:
		return typed(t, op.Div), true
	case token.Mod:
		return typed(t, op.Mod), true
	case token.Lt:
		return typed(t, op.Lt), true
	case token.LesserEquals:
		return typed(t, op.Le), true
	case token.Gt:
		return typed(t, op.Gt), true
	case token.GreaterEquals:
		return typed(t, op.Ge), true
	case token.Equals:
		return typed(t, op.Eq), true
	case token.NotEquals:
		return typed(t, op.Neq), true
	case token.RShift:
		return typed(t, op.Shr), true
	case token.LShift:
		return sized(t, op.Shl), true
	case token.BinaryAnd:
		return sized(t, op.Band), true
	case token.BinaryOr:
		return sized(t, op.Bor), true
	case token.BinaryXor:
		return sized(t, op.Bxor), true
	}
	return op.Empty, false
}

func (fc *funcCompiler) unsupportedOperator(e *ast.OperandExpr) {
	fc.c.unsupported(e, "operator %s", e.Op)
}

func (fc *funcCompiler) binary(e *ast.OperandExpr) (value, bool) {
	code, ok := binaryCode(e.Op, e.Term)
	if !ok {
		fc.unsupportedOperator(e)
		return value{}, false
	}
	l, ok := fc.expr(e.LHS)
	if !ok {
		return value{}, false
	}
	r, ok := fc.expr(e.RHS)
	if !ok {
		return value{}, false
	}
	dst := fc.code.temp(e.Type())
	fc.at(e)
	fc.code.emitABC(code, l.slot, r.slot, dst.slot)
	fc.code.release(l)
	fc.code.release(r)
	return dst, true
}

// logical lowers "and" and "or" so that the right operand is only evaluated
// when it decides the result.
func (fc *funcCompiler) logical(e *ast.OperandExpr) (value, bool) {
	dst := fc.code.temp(types.Bool)
	l, ok := fc.expr(e.LHS)
	if !ok {
		return value{}, false
	}
	fc.at(e)
	fc.code.emitABC(sized(types.Bool, op.SetLocal), l.slot, dst.slot, imm(0))
	fc.code.release(l)
	fc.code.emitABC(op.If, dst.slot, imm(0), imm(0))
	if e.Op == token.Or {
		fc.code.emit(op.AsBx(op.Jump, 0, 1))
	}
	end := fc.code.emitJump()
	r, ok := fc.expr(e.RHS)
	if !ok {
		return value{}, false
	}
	fc.at(e)
	fc.code.emitABC(sized(types.Bool, op.SetLocal), r.slot, dst.slot, imm(0))
	fc.code.release(r)
	fc.code.patchJump(end)
	return dst, true
}

func (fc *funcCompiler) unary(e *ast.OperandExpr) (value, bool) {
	x, ok := fc.expr(e.Operand())
	if !ok {
		return value{}, false
	}
	t := e.Type()
	dst := fc.code.temp(t)
	fc.at(e)
	switch e.Op {
	case token.Not:
		fc.code.emitABC(sized(t, op.Not), x.slot, dst.slot, imm(0))
	case token.BinaryNot:
		fc.code.emitABC(sized(t, op.Bnot), x.slot, dst.slot, imm(0))
	case token.Sub:
		zero := fc.loadConstant(t, 0)
		fc.code.emitABC(typed(t, op.Sub), zero.slot, x.slot, dst.slot)
		fc.code.release(zero)
	default:
		fc.unsupportedOperator(e)
		return value{}, false
	}
	fc.code.release(x)
	return dst, true
}

// step lowers "++" and "--". The destination receives the new value, or the
// old one in postfix form.
func (fc *funcCompiler) step(e *ast.OperandExpr) (value, bool) {
	p, ok := fc.place(e.Operand())
	if !ok {
		return value{}, false
	}
	defer fc.done(p)
	t := e.Type()
	code := typed(t, op.Inc)
	if e.Op == token.Decrement {
		code = typed(t, op.Dec)
	}
	var postfix uint32
	if e.IsPostfix() {
		postfix = 1
	}
	dst := fc.code.temp(t)
	fc.at(e)
	if p.kind == placeFrame {
		fc.code.emitABC(code, p.slot, dst.slot, imm(postfix))
		return dst, true
	}
	cur, ok := fc.load(p)
	if !ok {
		return value{}, false
	}
	fc.code.emitABC(code, cur.slot, dst.slot, imm(postfix))
	fc.store(p, cur)
	fc.code.release(cur)
	return dst, true
}

func (fc *funcCompiler) assign(e *ast.OperandExpr) (value, bool) {
	p, ok := fc.place(e.LHS)
	if !ok {
		return value{}, false
	}
	defer fc.done(p)
	v, ok := fc.expr(e.RHS)
	if !ok {
		return value{}, false
	}
	fc.at(e)
	fc.store(p, v)
	return v, true
}

func (fc *funcCompiler) compound(e *ast.OperandExpr) (value, bool) {
	code, ok := binaryCode(e.Op.Binary(), e.Term)
	if !ok {
		fc.unsupportedOperator(e)
		return value{}, false
	}
	p, ok := fc.place(e.LHS)
	if !ok {
		return value{}, false
	}
	defer fc.done(p)
	cur, ok := fc.load(p)
	if !ok {
		return value{}, false
	}
	r, ok := fc.expr(e.RHS)
	if !ok {
		return value{}, false
	}
	fc.at(e)
	defer fc.code.release(r)
	if p.kind == placeFrame {
		fc.code.emitABC(code, cur.slot, r.slot, p.slot)
		return value{slot: p.slot, size: p.typ.Size()}, true
	}
	dst := fc.code.temp(p.typ)
	fc.code.emitABC(code, cur.slot, r.slot, dst.slot)
	fc.code.release(cur)
	fc.store(p, dst)
	return dst, true
}

// call evaluates the arguments, stages them in the outgoing area and calls
// the callee. The result lands in a fresh temporary.
func (fc *funcCompiler) call(e *ast.CallExpr) (value, bool) {
	sig, _ := e.Callee.Type().(*types.Callable)
	if sig == nil {
		fc.c.internal(e, "call of non-callable")
		return value{}, false
	}
	var (
		callee value
		direct *ast.Function
	)
	if l, ok := e.Callee.(*ast.LoadExpr); ok && l.Kind == ast.LoadVariable {
		direct, _ = l.Decl.(*ast.Function)
	}
	if direct == nil {
		v, ok := fc.expr(e.Callee)
		if !ok {
			return value{}, false
		}
		callee = v
	}
	args := make([]value, len(e.Args))
	for i, a := range e.Args {
		if types.IsAggregate(a.Type()) {
			fc.c.unsupported(a, "%s argument", a.Type())
			return value{}, false
		}
		v, ok := fc.expr(a)
		if !ok {
			return value{}, false
		}
		args[i] = v
	}
	fc.at(e)
	for i, v := range args {
		fc.code.emitABC(sized(sig.Args[i], op.Arg), v.slot, imm(sig.ArgOffset(i)), imm(0))
		fc.code.release(v)
	}
	var dst value
	if sig.Return != types.Void {
		dst = fc.code.temp(sig.Return)
	}
	if direct != nil {
		fc.code.emitABx(op.CallStatic, dst.slot, fc.c.addrs[direct])
	} else {
		fc.code.emitABC(op.CallLocal, dst.slot, callee.slot, imm(0))
		fc.code.release(callee)
	}
	return dst, true
}

// cast converts between primitive kinds. A conversion to bool compares the
// operand with zero.
func (fc *funcCompiler) cast(e *ast.CastExpr) (value, bool) {
	x, ok := fc.expr(e.X)
	if !ok {
		return value{}, false
	}
	from, to := e.X.Type(), e.Type()
	if types.Identical(from, to) {
		return x, true
	}
	fc.at(e)
	defer fc.code.release(x)
	dst := fc.code.temp(to)
	if to == types.Bool {
		zero := fc.loadConstant(from, 0)
		fc.code.emitABC(typed(from, op.Neq), x.slot, zero.slot, dst.slot)
		fc.code.release(zero)
		return dst, true
	}
	code, ok := op.Convert(kindOf(from), kindOf(to))
	if !ok {
		fc.c.unsupported(e, "conversion from %s to %s", from, to)
		return value{}, false
	}
	fc.code.emitABC(code, x.slot, dst.slot, imm(0))
	return dst, true
}
