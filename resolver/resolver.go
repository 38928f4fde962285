// Package resolver binds identifier references to declarations.
//
// Resolution happens in two rounds. ResolveUnit walks the scope chain of
// every link of a unit, innermost scope first. Links that find nothing are
// deferred; once every unit has been through its own round, ResolveProject
// looks them up among the top-level declarations of the other units.
package resolver

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/ast"
	"github.com/ipa-lang/ipa/errz"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

type deferred struct {
	unit *ast.Unit
	link *ast.Link
}

// Resolver binds the links of a set of units.
type Resolver struct {
	log     zerolog.Logger
	pending []deferred
}

// New returns a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pending returns the number of links deferred to ResolveProject.
func (r *Resolver) Pending() int {
	return len(r.pending)
}

// ResolveUnit binds every link of u that is visible from its reference
// scope. Unmatched links are kept for ResolveProject.
func (r *Resolver) ResolveUnit(u *ast.Unit) {
	links := u.Links()
	var deferredCount int
	for _, l := range links {
		d, _, ok := l.Scope.Resolve(l.Token.Literal)
		if !ok {
			r.pending = append(r.pending, deferred{unit: u, link: l})
			deferredCount++
			continue
		}
		bind(u, l, d)
	}
	u.SetLinks(nil)
	r.log.Debug().
		Str("module", u.Name()).
		Int("links", len(links)).
		Int("deferred", deferredCount).
		Msg("resolved module links")
}

// ResolveProject resolves the deferred links against the top-level
// declarations of the other units, in unit order. A link matched by more
// than one unit is ambiguous; a link matched by none is unknown.
func (r *Resolver) ResolveProject(units []*ast.Unit) {
	for _, p := range r.pending {
		name := p.link.Token.Literal
		var found []ast.Decl
		var modules []string
		for _, other := range units {
			if other == p.unit {
				continue
			}
			if d, ok := other.Lookup(name); ok {
				found = append(found, d)
				modules = append(modules, other.Name())
			}
		}
		switch len(found) {
		case 0:
			container := p.link.Scope.Container()
			p.unit.Report(errz.ErrName, errz.E1001,
				errz.Text{Value: "unknown identifier"},
				errz.Token{Token: p.link.Token},
				errz.Text{Value: "in " + container.String()})
		case 1:
			bind(p.unit, p.link, found[0])
		default:
			sort.Strings(modules)
			p.unit.Report(errz.ErrName, errz.E1003,
				errz.Text{Value: "ambiguous identifier"},
				errz.Token{Token: p.link.Token},
				errz.Text{Value: "declared in modules " + strings.Join(modules, ", ")})
		}
	}
	r.log.Debug().Int("links", len(r.pending)).Msg("resolved cross-module links")
	r.pending = nil
}

func bind(u *ast.Unit, l *ast.Link, d ast.Decl) {
	if l.Type != nil {
		s, ok := d.(*ast.Struct)
		if !ok {
			u.Report(errz.ErrName, errz.E1004, errz.Token{Token: l.Token}, errz.Text{Value: "is not a type"})
			return
		}
		l.Type.Struct = s
		return
	}
	switch d := d.(type) {
	case *ast.Variable, *ast.Function:
		l.Load.Decl = d
	case *ast.Struct:
		u.Report(errz.ErrName, errz.E1005, errz.Text{Value: "struct"}, errz.Token{Token: l.Token},
			errz.Text{Value: "used as value"})
	}
}

// Resolve runs both rounds over units and returns the diagnostics of every
// unit, or nil.
func Resolve(units []*ast.Unit, opts ...Option) error {
	r := New(opts...)
	for _, u := range units {
		r.ResolveUnit(u)
	}
	r.ResolveProject(units)
	var result *multierror.Error
	for _, u := range units {
		if err := u.Errors().Err(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
