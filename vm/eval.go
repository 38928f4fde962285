package vm

import (
	"context"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

// eval runs the bottom frame until it returns. Operands are byte offsets
// relative to the active frame's fp unless they name a static address or
// a constant.
func (r *Runtime) eval(ctx context.Context) (uint64, error) {
	var count int
	checkInterval := r.contextCheckInterval
	done := ctx.Done()
	filter := newStepFilter(r.obsCfg)

	stack, static := r.stack, r.static
	f := &r.frames[len(r.frames)-1]

	for {
		if checkInterval > 0 && done != nil {
			count++
			if count >= checkInterval {
				count = 0
				select {
				case <-done:
					return 0, ctx.Err()
				default:
				}
			}
		}
		if f.ip >= len(f.code) {
			return 0, r.fault("function ended without return")
		}
		ins := f.code[f.ip]

		if r.observer != nil && filter.enabled() {
			loc := f.location()
			if filter.due(loc) && !r.observer.OnStep(StepEvent{
				Function:   f.fn.QualifiedName(),
				IP:         f.ip,
				Opcode:     ins.Code,
				OpcodeName: ins.Code.String(),
				Location:   loc,
				FP:         f.fp,
				FrameDepth: len(r.frames),
			}) {
				f.ip++
				return 0, r.halted()
			}
		}

		f.ip++
		fp := f.fp
		a, b, c := uint32(ins.A), uint32(ins.B), uint32(ins.C)

		switch code := ins.Code; {
		case code == op.Empty:
			if f.ip >= len(f.code) {
				return 0, r.fault("function ended without return")
			}
		case code == op.ReturnVoid:
			if last, err := r.ret(f, 0, 0); last || err != nil {
				return 0, err
			}
			f = &r.frames[len(r.frames)-1]
		case code == op.If:
			if stack[fp+a] != 0 {
				f.ip++
			}
		case code == op.Jump:
			f.ip += int(ins.SBx())
		case code == op.CallLocal:
			idx := load(stack, fp+b, 4)
			if err := r.call(f, idx, fp+a); err != nil {
				return 0, err
			}
			f = &r.frames[len(r.frames)-1]
		case code == op.CallStatic:
			idx := load(static, ins.Bx(), 4)
			if err := r.call(f, idx, fp+a); err != nil {
				return 0, err
			}
			f = &r.frames[len(r.frames)-1]
		case code == op.Move:
			copy(stack[fp+b:fp+b+c], stack[fp+a:fp+a+c])
		case code < op.SizeBase:
			k, off, ok := op.TypeOp(code)
			if !ok {
				return 0, r.fault("invalid opcode " + code.String())
			}
			size := k.Size()
			switch {
			case off < op.Add:
				to, _ := op.ConvertTarget(off)
				store(stack, fp+b, to.Size(), types.Convert(load(stack, fp+a, size), k, to))
			case off == op.Inc || off == op.Dec:
				delta := int64(1)
				if off == op.Dec {
					delta = -1
				}
				old := load(stack, fp+a, size)
				next := step(k, old, delta)
				store(stack, fp+a, size, next)
				if c != 0 {
					store(stack, fp+b, size, old)
				} else {
					store(stack, fp+b, size, next)
				}
			case off >= op.Lt && off <= op.Neq:
				x, y := load(stack, fp+a, size), load(stack, fp+b, size)
				store(stack, fp+c, 1, boolBits(compare(k, off, x, y)))
			default:
				x, y := load(stack, fp+a, size), load(stack, fp+b, size)
				store(stack, fp+c, size, arith(k, off, x, y))
			}
		default:
			size, off, ok := op.SizeOp(code)
			if !ok {
				return 0, r.fault("invalid opcode " + code.String())
			}
			switch off {
			case op.Not:
				store(stack, fp+b, size, boolBits(load(stack, fp+a, size) == 0))
			case op.Bor:
				store(stack, fp+c, size, load(stack, fp+a, size)|load(stack, fp+b, size))
			case op.Band:
				store(stack, fp+c, size, load(stack, fp+a, size)&load(stack, fp+b, size))
			case op.Bxor:
				store(stack, fp+c, size, load(stack, fp+a, size)^load(stack, fp+b, size))
			case op.Bnot:
				store(stack, fp+b, size, ^load(stack, fp+a, size))
			case op.Shl:
				store(stack, fp+c, size, load(stack, fp+a, size)<<load(stack, fp+b, size))
			case op.LoadConstant:
				store(stack, fp+a, size, load(r.constants, ins.Bx(), size))
			case op.LoadStatic:
				store(stack, fp+a, size, load(static, ins.Bx(), size))
			case op.SetLocal:
				store(stack, fp+b, size, load(stack, fp+a, size))
			case op.SetStatic:
				store(static, ins.Bx(), size, load(stack, fp+a, size))
			case op.Return:
				v := load(stack, fp+a, size)
				if last, err := r.ret(f, v, size); last || err != nil {
					return v, err
				}
				f = &r.frames[len(r.frames)-1]
			case op.Arg:
				store(r.argStage, b, size, load(stack, fp+a, size))
			case op.LoadIndex:
				idx := types.SignExtend(load(stack, fp+c, 4), 4)
				store(stack, fp+a, size, load(stack, elem(fp+b, idx, size), size))
			case op.SetIndex:
				idx := types.SignExtend(load(stack, fp+c, 4), 4)
				store(stack, elem(fp+b, idx, size), size, load(stack, fp+a, size))
			}
		}
	}
}

// elem returns the address of element idx of an array at base. A negative
// index faults.
func elem(base uint32, idx int64, size uint32) uint32 {
	if idx < 0 {
		panic("index out of range")
	}
	return uint32(int64(base) + idx*int64(size))
}

// call activates the function with handle idx. The staged arguments move
// to the callee's argument area and its locals are zeroed.
func (r *Runtime) call(caller *frame, idx uint64, dst uint32) error {
	if idx >= uint64(len(r.code)) {
		return r.fault("invalid function handle")
	}
	fn := r.program.FunctionAt(int(idx))
	fp := caller.top()
	end := uint64(fp) + uint64(fn.FrameSize()) + uint64(fn.ArgsSize())
	if end > uint64(len(r.stack)) || len(r.frames) >= MaxFrameDepth {
		return r.fault("stack overflow")
	}
	zero(r.stack[fp : fp+fn.FrameSize()])
	copy(r.stack[fp+fn.FrameSize():end], r.argStage[:fn.ArgsSize()])
	loc := caller.fn.Code().LocationAt(caller.ip - 1)
	r.frames = append(r.frames, frame{
		fn:   fn,
		code: r.code[idx],
		fp:   fp,
		ret:  dst,
	})
	if r.log.Trace().Enabled() {
		r.log.Trace().Str("function", fn.QualifiedName()).Uint32("fp", fp).Int("depth", len(r.frames)).Msg("call")
	}
	if r.observer != nil && !r.observeCall(fn, loc) {
		return r.halted()
	}
	return nil
}

// ret pops the active frame and stores the low size bytes of value in the
// caller's destination slot. It reports whether the bottom frame returned.
func (r *Runtime) ret(f *frame, value uint64, size uint32) (bool, error) {
	fn, dst := f.fn, f.ret
	loc := fn.Code().LocationAt(f.ip - 1)
	if r.observer != nil && r.obsCfg.ObserveReturns {
		ok := r.observer.OnReturn(ReturnEvent{
			Function:   fn.QualifiedName(),
			Location:   loc,
			FrameDepth: len(r.frames) - 1,
		})
		if !ok {
			return false, r.halted()
		}
	}
	r.frames = r.frames[:len(r.frames)-1]
	if len(r.frames) == 0 {
		return true, nil
	}
	if size > 0 {
		store(r.stack, dst, size, value)
	}
	return false, nil
}

func (r *Runtime) observeCall(fn *bytecode.Function, loc bytecode.SourceLocation) bool {
	if !r.obsCfg.ObserveCalls {
		return true
	}
	return r.observer.OnCall(CallEvent{
		Function:   fn.QualifiedName(),
		ArgCount:   fn.ArgCount(),
		Location:   loc,
		FrameDepth: len(r.frames),
	})
}
