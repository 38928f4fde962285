// Package compiler lowers typed IPA units into bytecode.
//
// # Passes
//
// Compilation runs after every unit has been resolved and type checked. It
// makes four passes over the units:
//
//  1. Static layout. Every function and global variable gets an address in
//     the static heap, in unit order then declaration order. A function
//     occupies 4 bytes holding its runtime index; a global occupies the size
//     of its type. Values are aligned to their size, or to 8 for structs
//     and arrays.
//  2. Argument layout. Each argument gets an aligned offset in the argument
//     area of its function, which is rounded up to 8 bytes.
//  3. Initialization. A synthetic "<init>" function evaluates the default
//     values of globals in dependency order and stores them.
//  4. Function bodies. Each function is lowered on its own.
//
// # Frames
//
// A frame holds the locals and temporaries of a call, padded to 8 bytes,
// followed by the arguments. Locals are pinned in declaration order when a
// function starts; temporaries are allocated first-fit behind them and
// released as soon as they are consumed. Because the frame size is only
// known once the body is lowered, instructions that refer to arguments are
// recorded and rebased when the function ends.
package compiler

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/types"
)

// DefaultFrameAlign is the default alignment of a frame.
const DefaultFrameAlign = 8

// Config holds compiler configuration options.
type Config struct {
	// FrameAlign is the alignment the frame of each function is padded
	// to. It must be a power of two of at least 8.
	FrameAlign uint32

	// Logger receives debug output. The zero Logger discards it.
	Logger zerolog.Logger
}

// Compiler holds the program-wide state of one compilation.
type Compiler struct {
	log        zerolog.Logger
	frameAlign uint32
	units      map[uint32]*ast.Unit

	// Static heap layout
	addrs      map[ast.Decl]uint32
	staticSize uint32
	globals    []bytecode.Global

	// Functions in program order and their indexes
	functions []*ast.Function
	index     map[*ast.Function]int

	constants []byte
	constPos  map[constKey]uint32

	errs *multierror.Error
}

type constKey struct {
	size uint32
	bits uint64
}

// Compile lowers the given units into a program. initOrder is the order in
// which globals finished type inference; globals missing from it are
// initialized after it in declaration order. Pass nil for cfg to use
// default settings.
func Compile(units []*ast.Unit, initOrder []*ast.Variable, cfg *Config) (*bytecode.Program, error) {
	c := New(cfg)
	return c.Compile(units, initOrder)
}

// New returns a Compiler.
func New(cfg *Config) *Compiler {
	c := &Compiler{
		log:        zerolog.Nop(),
		frameAlign: DefaultFrameAlign,
		units:      map[uint32]*ast.Unit{},
		addrs:      map[ast.Decl]uint32{},
		index:      map[*ast.Function]int{},
		constPos:   map[constKey]uint32{},
	}
	if cfg != nil {
		c.log = cfg.Logger
		if a := cfg.FrameAlign; a >= DefaultFrameAlign && a&(a-1) == 0 {
			c.frameAlign = a
		}
	}
	return c
}

// Compile lowers the given units. A Compiler must not be reused.
func (c *Compiler) Compile(units []*ast.Unit, initOrder []*ast.Variable) (*bytecode.Program, error) {
	for _, u := range units {
		c.units[u.ID()] = u
	}
	c.layout(units)

	var fns []*bytecode.Function
	for _, f := range c.functions {
		if fn := c.compileFunction(f); fn != nil {
			fns = append(fns, fn)
		}
	}
	initIndex := -1
	if initFn := c.compileInit(units, initOrder); initFn != nil {
		initIndex = len(fns)
		fns = append(fns, initFn)
	}
	if err := c.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	program := bytecode.NewProgram(bytecode.ProgramParams{
		Functions:  fns,
		Constants:  c.constants,
		StaticSize: c.staticSize,
		InitIndex:  initIndex,
		Globals:    c.globals,
	})
	stats := program.Stats()
	c.log.Debug().
		Str("build", program.ID().String()).
		Int("functions", stats.FunctionCount).
		Int("instructions", stats.InstructionCount).
		Int("constants", stats.ConstantBytes).
		Int("static", stats.StaticBytes).
		Msg("compiled program")
	return program, nil
}

// layout assigns static addresses to functions and globals.
func (c *Compiler) layout(units []*ast.Unit) {
	var offset uint64
	place := func(d ast.Decl, size, align uint32) uint32 {
		offset = uint64(types.AlignUp(uint32(offset), align))
		addr := uint32(offset)
		c.addrs[d] = addr
		offset += uint64(size)
		if offset > math.MaxUint32/2 {
			c.report(d, errz.ErrUnsupported, errz.E3005, errz.Text{Value: "static storage too large at"},
				errz.Token{Token: d.Token()})
			offset = 0
		}
		return addr
	}
	for _, u := range units {
		for _, d := range u.Decls() {
			switch d := d.(type) {
			case *ast.Function:
				place(d, 4, 4)
				c.index[d] = len(c.functions)
				c.functions = append(c.functions, d)
			case *ast.Variable:
				t := d.Type()
				if t == nil {
					c.internal(d, "untyped global")
					continue
				}
				addr := place(d, t.Size(), alignOf(t))
				g := bytecode.Global{Name: d.Name(), Module: u.Name(), Address: addr, Size: t.Size()}
				if p, ok := types.AsPrimitive(t); ok {
					g.Kind = p.Kind()
				}
				c.globals = append(c.globals, g)
			}
		}
	}
	c.staticSize = types.AlignUp(uint32(offset), 8)
}

// constant adds a value to the constant pool and returns its offset.
// Identical values of the same size share one entry.
func (c *Compiler) constant(size uint32, bits uint64) uint32 {
	key := constKey{size: size, bits: bits}
	if off, ok := c.constPos[key]; ok {
		return off
	}
	off := types.AlignUp(uint32(len(c.constants)), size)
	for uint32(len(c.constants)) < off+size {
		c.constants = append(c.constants, 0)
	}
	for i := uint32(0); i < size; i++ {
		c.constants[off+i] = byte(bits >> (8 * i))
	}
	c.constPos[key] = off
	return off
}

func (c *Compiler) compileFunction(f *ast.Function) *bytecode.Function {
	sig := f.Signature()
	if sig == nil {
		c.internal(f, "function without signature")
		return nil
	}
	fc := newFuncCompiler(c, f)
	if !fc.signature() {
		return nil
	}
	fc.block(f.Body)
	if sig.Return == types.Void {
		fc.code.at(f.Token())
		fc.returnVoid()
	}
	return fc.finish()
}

// compileInit builds the initializer of every global with a default value,
// or returns nil when there is none.
func (c *Compiler) compileInit(units []*ast.Unit, initOrder []*ast.Variable) *bytecode.Function {
	seen := map[*ast.Variable]bool{}
	var order []*ast.Variable
	add := func(v *ast.Variable) {
		if !seen[v] && v.IsGlobal() && v.Value != nil {
			seen[v] = true
			order = append(order, v)
		}
	}
	for _, v := range initOrder {
		add(v)
	}
	for _, u := range units {
		for _, d := range u.Decls() {
			if v, ok := d.(*ast.Variable); ok {
				add(v)
			}
		}
	}
	if len(order) == 0 {
		return nil
	}
	fc := newFuncCompiler(c, nil)
	for _, v := range order {
		fc.code.at(v.Token())
		val, ok := fc.expr(v.Value)
		if !ok {
			continue
		}
		fc.store(place{kind: placeStatic, addr: c.addrs[v], typ: v.Type(), node: v}, val)
		fc.code.release(val)
	}
	fc.returnVoid()
	return fc.finish()
}

func (c *Compiler) report(n ast.Node, kind errz.ErrorKind, code errz.ErrorCode, parts ...errz.Part) {
	var d *errz.Diagnostic
	if u, ok := c.units[n.ID().Unit()]; ok {
		d = u.Report(kind, code, parts...)
	} else {
		d = errz.New(kind, code, parts...)
	}
	c.errs = multierror.Append(c.errs, d)
}

func (c *Compiler) unsupported(n ast.Node, format string, args ...any) {
	c.report(n, errz.ErrUnsupported, errz.E3002, errz.Text{Value: fmt.Sprintf(format, args...)},
		errz.Token{Token: n.Token()})
}

func (c *Compiler) internal(n ast.Node, msg string) {
	c.report(n, errz.ErrInternal, errz.E3006, errz.Text{Value: msg}, errz.Token{Token: n.Token()})
}
