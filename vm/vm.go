// Package vm provides a Runtime that executes compiled IPA programs.
//
// A Runtime owns three byte buffers: a fixed stack holding the frames of
// active calls, the static heap holding globals and function handles, and a
// staging buffer for the arguments of the next call. Values are stored
// little-endian at the width of their type.
package vm

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

const (
	MB = 1024 * 1024
	KB = 1024

	DefaultStackSize    = 1 * MB
	DefaultArgStageSize = 4 * KB

	// MaxFrameDepth bounds recursion of functions with empty frames, which
	// never exhaust the stack.
	MaxFrameDepth = 1 << 16

	// DefaultContextCheckInterval is the number of instructions between
	// checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

// Runtime executes the functions of one program. It is not safe for
// concurrent use; a call started while another runs fails with ErrRunning.
type Runtime struct {
	program   *bytecode.Program
	code      [][]op.Instruction
	constants []byte
	stack     []byte
	static    []byte
	argStage  []byte
	frames    []frame

	stackSize            int
	argStageSize         int
	contextCheckInterval int
	observer             Observer
	obsCfg               ObserverConfig
	log                  zerolog.Logger

	running bool
	mu      sync.Mutex
}

// New creates a Runtime for the program and runs its initializer.
func New(program *bytecode.Program, options ...Option) (*Runtime, error) {
	r := &Runtime{
		program:              program,
		constants:            program.Constants(),
		stackSize:            DefaultStackSize,
		argStageSize:         DefaultArgStageSize,
		contextCheckInterval: DefaultContextCheckInterval,
		log:                  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.stackSize <= 0 || r.argStageSize <= 0 {
		return nil, fmt.Errorf("invalid runtime sizes: stack %d, arg stage %d", r.stackSize, r.argStageSize)
	}
	r.stack = make([]byte, r.stackSize)
	r.static = make([]byte, program.StaticSize())
	r.argStage = make([]byte, r.argStageSize)
	if err := r.load(); err != nil {
		return nil, err
	}
	if fn := program.InitFunction(); fn != nil {
		if _, err := r.execute(context.Background(), fn, nil); err != nil {
			return nil, fmt.Errorf("initializing globals: %w", err)
		}
	}
	return r, nil
}

// load validates the program against the runtime's buffers and writes each
// function's index into its handle.
func (r *Runtime) load() error {
	p := r.program
	initFn := p.InitFunction()
	r.code = make([][]op.Instruction, p.FunctionCount())
	for i := 0; i < p.FunctionCount(); i++ {
		fn := p.FunctionAt(i)
		if fn.Index() != i {
			return fmt.Errorf("function %s has index %d at position %d", fn.QualifiedName(), fn.Index(), i)
		}
		if int(fn.ArgsSize()) > len(r.argStage) {
			return fmt.Errorf("arguments of %s need %d bytes, arg stage holds %d",
				fn.QualifiedName(), fn.ArgsSize(), len(r.argStage))
		}
		r.code[i] = fn.Code().Instructions()
		if fn == initFn {
			continue
		}
		if uint64(fn.Address())+4 > uint64(len(r.static)) {
			return fmt.Errorf("handle of %s at @%d is outside static storage", fn.QualifiedName(), fn.Address())
		}
		store(r.static, fn.Address(), 4, uint64(i))
	}
	return nil
}

// Program returns the program the Runtime executes.
func (r *Runtime) Program() *bytecode.Program {
	return r.program
}

// Static returns a copy of the static heap.
func (r *Runtime) Static() []byte {
	out := make([]byte, len(r.static))
	copy(out, r.static)
	return out
}

// Global returns the value of a primitive global by name.
func (r *Runtime) Global(name string) (any, bool) {
	for i := 0; i < r.program.GlobalCount(); i++ {
		g := r.program.GlobalAt(i)
		if g.Name != name && g.Module+"."+g.Name != name {
			continue
		}
		if g.Kind == types.KindInvalid {
			return nil, false
		}
		return valueOf(load(r.static, g.Address, g.Kind.Size()), g.Kind), true
	}
	return nil, false
}

// Call is a host call being prepared. Arguments are supplied in order with
// Arg before the call is made.
type Call struct {
	rt   *Runtime
	fn   *bytecode.Function
	args []byte
	n    int
	err  error
}

// StartCall begins a call of fn.
func (r *Runtime) StartCall(fn *bytecode.Function) *Call {
	return &Call{rt: r, fn: fn, args: make([]byte, fn.ArgsSize())}
}

// Arg supplies the next argument. v must have exactly the Go type of the
// parameter's kind, such as int32 for s32.
func (c *Call) Arg(v any) error {
	if c.err != nil {
		return c.err
	}
	if c.n >= c.fn.ArgCount() {
		c.err = contractErrorf(c.fn, "too many arguments: takes %d", c.fn.ArgCount())
		return c.err
	}
	k := c.fn.ArgKind(c.n)
	bits, ok := toBits(v, k)
	if !ok {
		c.err = contractErrorf(c.fn, "argument %d must be %s, got %T", c.n+1, k, v)
		return c.err
	}
	store(c.args, c.fn.ArgOffset(c.n), k.Size(), bits)
	c.n++
	return nil
}

func (c *Call) check() error {
	if c.err != nil {
		return c.err
	}
	if c.n != c.fn.ArgCount() {
		return contractErrorf(c.fn, "takes %d arguments, %d given", c.fn.ArgCount(), c.n)
	}
	return nil
}

// Call runs the function. expected must equal the function's return kind
// and out must be a pointer to the matching Go type, or nil for void.
// Contract violations are reported before any instruction executes.
func (c *Call) Call(ctx context.Context, out any, expected types.Kind) error {
	if err := c.check(); err != nil {
		return err
	}
	if expected != c.fn.ReturnKind() {
		return contractErrorf(c.fn, "returns %s, caller expects %s", c.fn.ReturnKind(), expected)
	}
	if !checkOut(out, expected) {
		return contractErrorf(c.fn, "cannot store %s result in %T", expected, out)
	}
	bits, err := c.rt.execute(ctx, c.fn, c.args)
	if err != nil {
		return err
	}
	if out != nil {
		setOut(out, bits, expected)
	}
	return nil
}

// Invoke calls the function with the given qualified or bare name and
// returns its result as a Go value, nil for void.
func (r *Runtime) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := r.program.Lookup(name)
	if !ok {
		return nil, &ContractError{Function: name, Message: "function not found"}
	}
	c := r.StartCall(fn)
	for _, a := range args {
		if err := c.Arg(a); err != nil {
			return nil, err
		}
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	bits, err := r.execute(ctx, fn, c.args)
	if err != nil {
		return nil, err
	}
	return valueOf(bits, fn.ReturnKind()), nil
}

func (r *Runtime) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunning
	}
	r.running = true
	return nil
}

func (r *Runtime) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.frames = r.frames[:0]
}

// execute runs fn with the given argument area and returns the raw bits
// of its result. Panics raised by faulting instructions are converted to
// RuntimeErrors.
func (r *Runtime) execute(ctx context.Context, fn *bytecode.Function, args []byte) (result uint64, err error) {
	if err := r.start(); err != nil {
		return 0, err
	}
	defer func() {
		if p := recover(); p != nil {
			err = r.recovered(p)
		}
		r.stop()
	}()
	size := uint64(fn.FrameSize()) + uint64(fn.ArgsSize())
	if size > uint64(len(r.stack)) {
		return 0, &RuntimeError{Function: fn.QualifiedName(), Message: "stack overflow"}
	}
	zero(r.stack[:fn.FrameSize()])
	copy(r.stack[fn.FrameSize():size], args)
	r.frames = append(r.frames[:0], frame{fn: fn, code: r.code[fn.Index()]})
	if r.observer != nil {
		r.obsCfg = r.observer.Config()
	}
	r.log.Trace().Str("function", fn.QualifiedName()).Msg("call")
	if r.observer != nil && !r.observeCall(fn, bytecode.SourceLocation{}) {
		return 0, r.halted()
	}
	return r.eval(ctx)
}

func (r *Runtime) recovered(p any) error {
	e := r.fault(fmt.Sprint(p))
	if err, ok := p.(error); ok {
		e.Cause = err
	}
	return e
}

// fault builds a RuntimeError located at the instruction that last
// executed, with the active call stack innermost first.
func (r *Runtime) fault(msg string) *RuntimeError {
	e := &RuntimeError{Message: msg}
	for i := len(r.frames) - 1; i >= 0; i-- {
		f := &r.frames[i]
		ip := f.ip - 1
		if ip < 0 {
			ip = 0
		}
		e.Stack = append(e.Stack, StackFrame{
			Function: f.fn.QualifiedName(),
			IP:       ip,
			Location: f.fn.Code().LocationAt(ip),
		})
	}
	if len(e.Stack) > 0 {
		e.Function, e.IP, e.Location = e.Stack[0].Function, e.Stack[0].IP, e.Stack[0].Location
	}
	return e
}

func (r *Runtime) halted() *RuntimeError {
	e := r.fault(ErrHalted.Error())
	e.Cause = ErrHalted
	return e
}
