package compiler

import (
	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

func (fc *funcCompiler) block(b *ast.Block) {
	for _, s := range b.Stmts {
		fc.stmt(s)
	}
}

func (fc *funcCompiler) stmt(s ast.Stmt) {
	fc.at(s)
	switch s := s.(type) {
	case *ast.ExprStmt:
		if v, ok := fc.expr(s.X); ok {
			fc.code.release(v)
		}
	case *ast.ReturnStmt:
		fc.ret(s)
	case *ast.IfStmt:
		fc.ifStmt(s)
	case *ast.WhileStmt:
		fc.whileStmt(s)
	case *ast.ForStmt:
		if s.IsRange() {
			fc.forRange(s)
		} else {
			fc.forEach(s)
		}
	default:
		fc.c.internal(s, "unknown statement")
	}
}

func (fc *funcCompiler) ret(s *ast.ReturnStmt) {
	if s.Value == nil {
		fc.returnVoid()
		return
	}
	v, ok := fc.expr(s.Value)
	if !ok {
		return
	}
	fc.at(s)
	fc.code.emitABC(sized(s.Value.Type(), op.Return), v.slot, imm(0), imm(0))
	fc.code.release(v)
}

// cond evaluates a condition and emits a jump taken when it is false. The
// jump is returned for patching.
func (fc *funcCompiler) cond(x ast.Expr) (int, bool) {
	c, ok := fc.expr(x)
	if !ok {
		return 0, false
	}
	fc.code.emitABC(op.If, c.slot, imm(0), imm(0))
	fc.code.release(c)
	return fc.code.emitJump(), true
}

func (fc *funcCompiler) ifStmt(s *ast.IfStmt) {
	skip, ok := fc.cond(s.Cond)
	if !ok {
		return
	}
	fc.block(s.Then)
	if s.Else == nil {
		fc.code.patchJump(skip)
		return
	}
	fc.at(s.Else)
	end := fc.code.emitJump()
	fc.code.patchJump(skip)
	fc.block(s.Else)
	fc.code.patchJump(end)
}

func (fc *funcCompiler) whileStmt(s *ast.WhileStmt) {
	top := fc.code.position()
	exit, ok := fc.cond(s.Cond)
	if !ok {
		return
	}
	fc.block(s.Body)
	fc.at(s)
	fc.code.jumpTo(top)
	fc.code.patchJump(exit)
}

// forRange lowers a loop over [low, high). The upper bound is evaluated once
// before the first iteration.
func (fc *funcCompiler) forRange(s *ast.ForStmt) {
	t := s.It.Type()
	it := place{kind: placeFrame, slot: fc.slots[s.It], typ: t, node: s.It}
	lo, ok := fc.expr(s.Low)
	if !ok {
		return
	}
	fc.store(it, lo)
	fc.code.release(lo)
	hi, ok := fc.expr(s.High)
	if !ok {
		return
	}
	if !hi.temp {
		tmp := fc.code.temp(t)
		fc.code.emitABC(sized(t, op.SetLocal), hi.slot, tmp.slot, imm(0))
		hi = tmp
	}
	cmp := fc.code.temp(types.Bool)
	fc.at(s)
	top := fc.code.position()
	fc.code.emitABC(typed(t, op.Lt), it.slot, hi.slot, cmp.slot)
	fc.code.emitABC(op.If, cmp.slot, imm(0), imm(0))
	exit := fc.code.emitJump()
	fc.block(s.Body)
	fc.at(s)
	fc.code.emitABC(typed(t, op.Inc), it.slot, it.slot, imm(0))
	fc.code.jumpTo(top)
	fc.code.patchJump(exit)
	fc.code.release(hi)
	fc.code.release(cmp)
}

// forEach lowers a loop over the elements of a local array. Without an index
// variable the counter lives in a hidden temporary.
func (fc *funcCompiler) forEach(s *ast.ForStmt) {
	arr, ok := fc.place(s.Array)
	if !ok {
		return
	}
	at, _ := arr.typ.(*types.Array)
	switch {
	case at == nil:
		fc.c.internal(s, "iteration over non-array")
		return
	case arr.kind != placeFrame:
		fc.c.unsupported(s.Array, "array %s must be a local", s.Array)
		return
	}
	if _, prim := types.AsPrimitive(at.Elem); !prim {
		fc.c.unsupported(s.Array, "array of %s", at.Elem)
		return
	}
	fc.at(s)
	var idx value
	if s.Index != nil {
		idx = value{slot: fc.slots[s.Index], size: 4}
	} else {
		idx = fc.code.temp(types.S32)
	}
	fc.code.emitABx(sized(types.S32, op.LoadConstant), idx.slot, fc.c.constant(4, 0))
	n := fc.loadConstant(types.S32, uint64(at.Len))
	cmp := fc.code.temp(types.Bool)
	top := fc.code.position()
	fc.code.emitABC(typed(types.S32, op.Lt), idx.slot, n.slot, cmp.slot)
	fc.code.emitABC(op.If, cmp.slot, imm(0), imm(0))
	exit := fc.code.emitJump()
	fc.code.emitABC(sized(at.Elem, op.LoadIndex), fc.slots[s.It], arr.slot, idx.slot)
	fc.block(s.Body)
	fc.at(s)
	fc.code.emitABC(typed(types.S32, op.Inc), idx.slot, idx.slot, imm(0))
	fc.code.jumpTo(top)
	fc.code.patchJump(exit)
	fc.code.release(idx)
	fc.code.release(n)
	fc.code.release(cmp)
}
