// Package ipa drives the phases of an IPA build.
//
// A Project owns the units of one program. The parser, or a test, fills
// each unit through the ast.Builder returned by NewUnit. Build then runs
// resolution, type inference and compilation as strict barriers: each phase
// starts only when the previous one has finished for every unit, and no
// bytecode is produced when any unit has reported a diagnostic.
package ipa

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/compiler"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/resolver"
	"github.com/ipa-lang/ipa/sema"
	"github.com/ipa-lang/ipa/vm"
)

// ErrBuilt is returned when units are added to a project that was built.
var ErrBuilt = errors.New("project already built")

// Project holds the units of one program.
type Project struct {
	opts     *options
	log      zerolog.Logger
	global   *ast.Scope
	units    []*ast.Unit
	builders []*ast.Builder

	built   bool
	program *bytecode.Program
	err     error
}

// NewProject returns an empty project.
func NewProject(opts ...Option) *Project {
	o := collectOptions(opts...)
	return &Project{
		opts:   o,
		log:    o.log,
		global: ast.NewGlobalScope(),
	}
}

// NewUnit adds a module and returns the builder that fills it.
func (p *Project) NewUnit(name string) (*ast.Builder, error) {
	if p.built {
		return nil, ErrBuilt
	}
	u := ast.NewUnit(uint32(len(p.units)+1), name, p.global)
	b := ast.NewBuilder(u)
	p.units = append(p.units, u)
	p.builders = append(p.builders, b)
	return b, nil
}

// Units returns the units in the order they were added.
func (p *Project) Units() []*ast.Unit {
	return p.units
}

// Build resolves, type checks and compiles the project. It returns every
// diagnostic of every unit, aggregated in a *multierror.Error, when any was
// reported. A project is built once; later calls return the same result.
func (p *Project) Build(ctx context.Context) (*bytecode.Program, error) {
	if p.built {
		return p.program, p.err
	}
	p.built = true
	p.program, p.err = p.build(ctx)
	return p.program, p.err
}

func (p *Project) build(ctx context.Context) (*bytecode.Program, error) {
	for i, b := range p.builders {
		if !p.units[i].Scope().IsFinalized() {
			b.Finish()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Resolver and inferer errors are also recorded on the units, where
	// they are collected once every phase has run.
	_ = resolver.Resolve(p.units, resolver.WithLogger(p.log))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := sema.New(sema.WithLogger(p.log), sema.WithMaxDepth(p.opts.cfg.Compiler.MaxDepth))
	_ = in.Infer(p.units)
	if err := p.diagnostics(); err != nil {
		p.log.Debug().Int("units", len(p.units)).Msg("build failed before compilation")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program, err := compiler.Compile(p.units, in.InitOrder(), &compiler.Config{
		FrameAlign: p.opts.cfg.Compiler.FrameAlign,
		Logger:     p.log,
	})
	if err != nil {
		if derr := p.diagnostics(); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	return program, nil
}

func (p *Project) diagnostics() error {
	var result *multierror.Error
	for _, d := range p.Diagnostics() {
		result = multierror.Append(result, d)
	}
	return result.ErrorOrNil()
}

// Diagnostics returns the diagnostics of every unit, in unit order.
func (p *Project) Diagnostics() []*errz.Diagnostic {
	var out []*errz.Diagnostic
	for _, u := range p.units {
		out = append(out, u.Errors().Items()...)
	}
	return out
}

// NewRuntime builds the project and returns a runtime for the program,
// configured from the project's settings.
func (p *Project) NewRuntime(ctx context.Context) (*vm.Runtime, error) {
	program, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}
	return vm.New(program, p.opts.vmOpts()...)
}

// Run builds the project, calls the named function with args and returns
// its result.
func (p *Project) Run(ctx context.Context, name string, args ...any) (any, error) {
	rt, err := p.NewRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Invoke(ctx, name, args...)
}

// Run creates a runtime for a compiled program and calls the named
// function with args.
func Run(ctx context.Context, program *bytecode.Program, name string, args []any, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	rt, err := vm.New(program, o.vmOpts()...)
	if err != nil {
		return nil, err
	}
	return rt.Invoke(ctx, name, args...)
}
