// Package sema infers the type of every declaration and expression of a set
// of resolved units.
//
// Inference is demand driven: a load of a variable jumps to the variable's
// declaration and infers it first. A visit state per node, kept by the
// Inferer, detects circular dependencies, and a depth cap bounds the length
// of a dependency chain.
package sema

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
	"github.com/ipa-lang/ipa/types"
)

// DefaultMaxDepth is the default cap on nested declaration visits.
const DefaultMaxDepth = 512

type state uint8

const (
	unvisited state = iota
	visiting
	done
)

// Option configures an Inferer.
type Option func(*Inferer)

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(in *Inferer) {
		in.log = log
	}
}

// WithMaxDepth caps the number of declarations that may be visited in a
// single dependency chain.
func WithMaxDepth(depth int) Option {
	return func(in *Inferer) {
		if depth > 0 {
			in.maxDepth = depth
		}
	}
}

// Inferer assigns types to the nodes of a set of units.
type Inferer struct {
	log      zerolog.Logger
	maxDepth int
	units    map[uint32]*ast.Unit
	state    map[ast.NodeID]state
	seen     map[ast.NodeID]bool
	stack    []ast.Decl
	structs  map[*types.Struct]*ast.Struct
	order    []*ast.Variable
	errs     *multierror.Error
}

// New returns an Inferer.
func New(opts ...Option) *Inferer {
	in := &Inferer{
		log:      zerolog.Nop(),
		maxDepth: DefaultMaxDepth,
		units:    map[uint32]*ast.Unit{},
		state:    map[ast.NodeID]state{},
		seen:     map[ast.NodeID]bool{},
		structs:  map[*types.Struct]*ast.Struct{},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Infer types every declaration of units, then every function body. The
// returned error holds the diagnostics reported by this call; they are also
// recorded on the unit each one belongs to.
func (in *Inferer) Infer(units []*ast.Unit) error {
	for _, u := range units {
		in.units[u.ID()] = u
	}
	for _, u := range units {
		for _, d := range u.Decls() {
			in.jumpTo(d)
		}
	}
	for _, u := range units {
		fns := u.Functions()
		for _, f := range fns {
			in.function(f)
		}
		in.log.Debug().
			Str("module", u.Name()).
			Int("functions", len(fns)).
			Int("errors", u.Errors().Len()).
			Msg("inferred module")
	}
	return in.errs.ErrorOrNil()
}

// InitOrder returns the global variables in the order their inference
// completed. A global always follows the globals its value depends on.
func (in *Inferer) InitOrder() []*ast.Variable {
	return in.order
}

func (in *Inferer) report(n ast.Node, kind errz.ErrorKind, code errz.ErrorCode, parts ...errz.Part) {
	u, ok := in.units[n.ID().Unit()]
	if !ok {
		in.log.Error().Str("node", n.ID().String()).Msg("node of unknown unit")
		d := errz.New(kind, code, parts...)
		in.errs = multierror.Append(in.errs, d)
		return
	}
	in.errs = multierror.Append(in.errs, u.Report(kind, code, parts...))
}

func (in *Inferer) typeError(n ast.Node, code errz.ErrorCode, format string, args ...any) {
	in.report(n, errz.ErrType, code, errz.Text{Value: fmt.Sprintf(format, args...)}, errz.Token{Token: n.Token()})
}

// jumpTo infers d if it has not been inferred yet and returns its type.
func (in *Inferer) jumpTo(d ast.Decl) types.Type {
	id := d.ID()
	switch in.state[id] {
	case done:
		return d.Type()
	case visiting:
		in.circular(d)
		in.state[id] = done
		return nil
	}
	if len(in.stack) >= in.maxDepth {
		in.report(d, errz.ErrType, errz.E2008, errz.Text{Value: "dependency chain too deep at"},
			errz.Token{Token: d.Token()}, errz.Text{Value: fmt.Sprintf("(limit %d)", in.maxDepth)})
		in.state[id] = done
		return nil
	}

	in.state[id] = visiting
	in.stack = append(in.stack, d)
	switch d := d.(type) {
	case *ast.Variable:
		in.variable(d)
	case *ast.Function:
		in.signature(d)
	case *ast.Struct:
		in.structType(d)
	}
	in.stack = in.stack[:len(in.stack)-1]
	in.state[id] = done

	if v, ok := d.(*ast.Variable); ok && v.IsGlobal() {
		in.order = append(in.order, v)
	}
	return d.Type()
}

func (in *Inferer) circular(d ast.Decl) {
	cur := in.stack[len(in.stack)-1]
	if cur == d {
		in.report(d, errz.ErrType, errz.E2002, errz.Text{Value: "circular type dependency on"},
			errz.Token{Token: d.Token()})
		return
	}
	in.report(cur, errz.ErrType, errz.E2002, errz.Text{Value: "circular type dependency between"},
		errz.Token{Token: cur.Token()}, errz.Text{Value: "and"}, errz.Token{Token: d.Token()})
}

func (in *Inferer) variable(v *ast.Variable) {
	if v.Type() != nil {
		return
	}
	var t types.Type
	switch {
	case v.Annotation != nil:
		if t = in.typeRef(v.Annotation); t == nil {
			return
		}
		if v.Value != nil {
			if in.expr(v.Value) == nil {
				return
			}
			v.Value = in.coerce(v.Value, t)
		}
	case v.Value != nil:
		if t = in.expr(v.Value); t == nil {
			return
		}
	default:
		in.typeError(v, errz.E2007, "cannot infer type of")
		return
	}
	if t == types.Void {
		in.typeError(v, errz.E2007, "void value assigned to")
		return
	}
	v.SetType(t)
}

func (in *Inferer) signature(f *ast.Function) {
	if f.Signature() != nil {
		return
	}
	args := make([]types.Type, len(f.Args))
	ok := true
	for i, a := range f.Args {
		if a.Type() == nil {
			if a.Annotation == nil {
				in.typeError(a, errz.E2007, "missing type of argument")
				ok = false
				continue
			}
			t := in.typeRef(a.Annotation)
			if t == nil {
				ok = false
				continue
			}
			a.SetType(t)
		}
		args[i] = a.Type()
		in.state[a.ID()] = done
	}
	var ret types.Type = types.Void
	if f.Return != nil {
		if ret = in.typeRef(f.Return); ret == nil {
			return
		}
	}
	if ok {
		f.SetSignature(types.NewCallable(ret, args))
	}
}

func (in *Inferer) structType(s *ast.Struct) {
	if st := s.StructType(); st != nil {
		in.structs[st] = s
		return
	}
	members := s.Members()
	fields := make([]types.Field, 0, len(members))
	for _, m := range members {
		if m.Type() == nil {
			if m.Annotation == nil {
				in.typeError(m, errz.E2007, "missing type of member")
				return
			}
			t := in.typeRef(m.Annotation)
			if t == nil {
				return
			}
			m.SetType(t)
		}
		fields = append(fields, types.Field{Name: m.Name(), Type: m.Type()})
	}
	st := types.NewStruct(s.Name(), fields)
	s.SetStructType(st)
	in.structs[st] = s
}

func (in *Inferer) typeRef(ref *ast.TypeRef) types.Type {
	switch ref.Kind {
	case ast.TypePrimitive:
		return ref.Primitive
	case ast.TypeNamed:
		if ref.Struct == nil {
			return nil
		}
		in.jumpTo(ref.Struct)
		if st := ref.Struct.StructType(); st != nil {
			return st
		}
		return nil
	case ast.TypeArray:
		elem := in.typeRef(ref.Elem)
		if elem == nil {
			return nil
		}
		if elem == types.Void || ref.Len == 0 {
			in.typeError(ref, errz.E2001, "invalid array type %s", ref)
			return nil
		}
		if uint64(elem.Size())*uint64(ref.Len) > math.MaxUint32 {
			in.typeError(ref, errz.E2011, "array type %s is too large", ref)
			return nil
		}
		return &types.Array{Elem: elem, Len: ref.Len}
	}
	return nil
}

func (in *Inferer) function(f *ast.Function) {
	sig := f.Signature()
	if sig == nil {
		return
	}
	in.block(f.Body)
	for _, l := range f.Locals {
		in.jumpTo(l)
	}
	if sig.Return != types.Void && !terminates(f.Body) {
		in.report(f, errz.ErrType, errz.E2012, errz.Text{Value: "missing return at end of function"},
			errz.Token{Token: f.Token()})
	}
}

// cast wraps x in an implicit conversion to t, allocated from the unit x
// belongs to.
func (in *Inferer) cast(x ast.Expr, t types.Type) ast.Expr {
	u, ok := in.units[x.ID().Unit()]
	if !ok {
		return x
	}
	c := u.NewCast(x)
	c.SetType(t)
	return c
}

// coerce returns x converted to t when the types are identical or x widens
// to t, and reports a mismatch otherwise. x must be typed.
func (in *Inferer) coerce(x ast.Expr, t types.Type) ast.Expr {
	from := x.Type()
	if types.Identical(from, t) {
		return x
	}
	if types.CanWiden(from, t) {
		return in.cast(x, t)
	}
	in.report(x, errz.ErrType, errz.E2001, errz.Text{Value: "cannot use"}, errz.Token{Token: x.Token()},
		errz.Text{Value: "of type"}, errz.TypeName{Name: from.String()},
		errz.Text{Value: "as"}, errz.TypeName{Name: t.String()})
	return x
}
