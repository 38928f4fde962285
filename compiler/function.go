package compiler

import (
	"github.com/hashicorp/go-multierror"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

// funcCompiler lowers the body of one function. A nil fn denotes the
// initializer.
type funcCompiler struct {
	c    *Compiler
	fn   *ast.Function
	sig  *types.Callable
	code code
	// slots holds the pinned slot of every local and argument.
	slots map[*ast.Variable]slot
}

func newFuncCompiler(c *Compiler, fn *ast.Function) *funcCompiler {
	fc := &funcCompiler{
		c:     c,
		fn:    fn,
		slots: map[*ast.Variable]slot{},
	}
	if fn != nil {
		fc.sig = fn.Signature()
	}
	return fc
}

// signature lays out the arguments and pins the locals. Struct and array
// values cannot cross a call boundary.
func (fc *funcCompiler) signature() bool {
	ok := true
	for i, a := range fc.fn.Args {
		if types.IsAggregate(a.Type()) {
			fc.c.unsupported(a, "%s argument of function %s", a.Type(), fc.fn.Name())
			ok = false
			continue
		}
		fc.slots[a] = slot{off: fc.sig.ArgOffset(i), arg: true}
	}
	if types.IsAggregate(fc.sig.Return) {
		fc.c.unsupported(fc.fn, "%s return value of function", fc.sig.Return)
		ok = false
	}
	for _, l := range fc.fn.Locals {
		t := l.Type()
		if t == nil {
			fc.c.internal(l, "untyped local")
			ok = false
			continue
		}
		fc.slots[l] = slot{off: fc.code.alloc(t.Size(), alignOf(t))}
	}
	return ok
}

func (fc *funcCompiler) returnVoid() {
	fc.code.emitABC(op.ReturnVoid, imm(0), imm(0), imm(0))
}

func (fc *funcCompiler) finish() *bytecode.Function {
	frame, ok := fc.code.finish(fc.c.frameAlign)
	params := bytecode.FunctionParams{
		Name:       bytecode.InitName,
		Index:      len(fc.c.functions),
		FrameSize:  frame,
		ReturnKind: types.KindVoid,
		Code:       fc.code.toBytecode(),
	}
	if fc.fn != nil {
		u := fc.c.units[fc.fn.ID().Unit()]
		params.Name = fc.fn.Name()
		params.Module = u.Name()
		params.Index = fc.c.index[fc.fn]
		params.Address = fc.c.addrs[fc.fn]
		params.ArgsSize = fc.sig.ArgsSize()
		for i, t := range fc.sig.Args {
			params.ArgKinds = append(params.ArgKinds, kindOf(t))
			params.ArgOffsets = append(params.ArgOffsets, fc.sig.ArgOffset(i))
		}
		params.ReturnKind = kindOf(fc.sig.Return)
	}
	if !ok || frame+params.ArgsSize > 0xFFFF {
		parts := []errz.Part{errz.Text{Value: "frame of function"}, errz.Text{Value: params.Name}}
		if fc.fn != nil {
			parts[1] = errz.Token{Token: fc.fn.Token()}
		}
		parts = append(parts, errz.Text{Value: "exceeds 64 KiB"})
		if fc.fn != nil {
			fc.c.report(fc.fn, errz.ErrUnsupported, errz.E3003, parts...)
		} else {
			fc.c.errs = multierror.Append(fc.c.errs, errz.New(errz.ErrUnsupported, errz.E3003, parts...))
		}
		return nil
	}
	fn := bytecode.NewFunction(params)
	fc.c.log.Debug().
		Str("function", fn.QualifiedName()).
		Uint32("frame", fn.FrameSize()).
		Uint32("args", fn.ArgsSize()).
		Int("instructions", fn.Code().InstructionCount()).
		Msg("compiled function")
	return fn
}

// kindOf returns the runtime kind of a value of t. Function values travel
// as u32 handles.
func kindOf(t types.Type) types.Kind {
	switch t := t.(type) {
	case *types.Primitive:
		return t.Kind()
	case *types.Callable:
		return types.KindU32
	}
	return types.KindInvalid
}
