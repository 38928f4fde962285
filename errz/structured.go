// Package errz is the diagnostic data model shared by the compiler phases.
//
// A Diagnostic is a chain of typed parts (module reference, free text, source
// token, operator, type name) so that renderers can highlight each piece
// differently. Diagnostics are accumulated in an ordered List per module.
package errz

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ipa-lang/ipa/token"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrSyntax indicates a malformed construct handed over by the parser.
	ErrSyntax ErrorKind = iota
	// ErrName indicates an unknown, ambiguous or duplicate identifier.
	ErrName
	// ErrType indicates incompatible types or a circular type dependency.
	ErrType
	// ErrUnsupported indicates a construct the compiler cannot lower.
	ErrUnsupported
	// ErrInternal indicates a broken invariant inside the compiler.
	ErrInternal
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrName:
		return "name error"
	case ErrType:
		return "type error"
	case ErrUnsupported:
		return "unsupported"
	case ErrInternal:
		return "internal error"
	default:
		return "error"
	}
}

// Part is one link of a diagnostic chain.
type Part interface {
	part()
	String() string
}

// Module names the module the diagnostic belongs to.
type Module struct{ Name string }

// Text is free text.
type Text struct{ Value string }

// Token highlights a source token.
type Token struct{ Token token.Token }

// Operator names an operator.
type Operator struct{ Operator token.Operator }

// TypeName names a type.
type TypeName struct{ Name string }

func (Module) part()   {}
func (Text) part()     {}
func (Token) part()    {}
func (Operator) part() {}
func (TypeName) part() {}

func (p Module) String() string   { return p.Name }
func (p Text) String() string     { return p.Value }
func (p Token) String() string    { return fmt.Sprintf("%q", p.Token.Literal) }
func (p Operator) String() string { return fmt.Sprintf("'%s'", p.Operator) }
func (p TypeName) String() string { return p.Name }

// Diagnostic is a compile error. It implements the error interface.
type Diagnostic struct {
	Kind  ErrorKind
	Code  ErrorCode
	Parts []Part
	Cause error
}

// New returns a diagnostic of the given kind and code made of parts.
func New(kind ErrorKind, code ErrorCode, parts ...Part) *Diagnostic {
	return &Diagnostic{Kind: kind, Code: code, Parts: parts}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	msg := d.Message()
	if pos, ok := d.Position(); ok {
		return fmt.Sprintf("%s: %s (%s)", d.Kind, msg, pos)
	}
	return fmt.Sprintf("%s: %s", d.Kind, msg)
}

// Unwrap returns the underlying cause of the error.
func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// Message joins every part except the module reference.
func (d *Diagnostic) Message() string {
	var words []string
	for _, p := range d.Parts {
		if _, ok := p.(Module); ok {
			continue
		}
		words = append(words, p.String())
	}
	return strings.Join(words, " ")
}

// ModuleName returns the module the diagnostic was reported in.
func (d *Diagnostic) ModuleName() string {
	for _, p := range d.Parts {
		if m, ok := p.(Module); ok {
			return m.Name
		}
	}
	return ""
}

// Position returns the start of the first highlighted token.
func (d *Diagnostic) Position() (token.Position, bool) {
	for _, p := range d.Parts {
		if t, ok := p.(Token); ok {
			return t.Token.StartPosition, true
		}
	}
	return token.Position{}, false
}

// WithCause wraps the diagnostic around a cause.
func (d *Diagnostic) WithCause(cause error) *Diagnostic {
	d.Cause = cause
	return d
}

// List is an ordered collection of diagnostics.
type List struct {
	items []*Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d *Diagnostic) {
	l.items = append(l.items, d)
}

// Addf appends a diagnostic with a single formatted text part after the
// given token.
func (l *List) Addf(kind ErrorKind, code ErrorCode, module string, tok token.Token, format string, args ...any) *Diagnostic {
	d := New(kind, code, Module{module}, Text{fmt.Sprintf(format, args...)}, Token{tok})
	l.Add(d)
	return d
}

// Len returns the number of diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns the diagnostics in the order they were added.
func (l *List) Items() []*Diagnostic {
	return l.items
}

// Err returns nil for an empty list and otherwise a *multierror.Error holding
// every diagnostic.
func (l *List) Err() error {
	var result *multierror.Error
	for _, d := range l.items {
		result = multierror.Append(result, d)
	}
	return result.ErrorOrNil()
}
