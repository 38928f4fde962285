package ast

import (
	"errors"
	"fmt"
)

// ScopeKind describes what introduced a scope.
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeStruct
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeStruct:
		return "struct"
	default:
		return "scope"
	}
}

// IndexThreshold is the declaration count from which a finalized scope
// builds a hash index instead of relying on linear scans.
const IndexThreshold = 32

var (
	// ErrDuplicate is returned when a name is declared twice in one scope.
	ErrDuplicate = errors.New("duplicate declaration")
	// ErrFinalized is returned when declaring into a finalized scope.
	ErrFinalized = errors.New("scope is finalized")
)

// Scope is an ordered set of declarations with a parent pointer.
type Scope struct {
	node
	kind      ScopeKind
	owner     string
	parent    *Scope
	decls     []Decl
	index     []int32
	finalized bool
}

// Kind returns what introduced the scope.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Owner returns the name of the module, function or struct owning the scope.
func (s *Scope) Owner() string { return s.owner }

// Parent returns the enclosing scope or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// Decls returns the declarations in declaration order.
func (s *Scope) Decls() []Decl { return s.decls }

// Len returns the number of declarations.
func (s *Scope) Len() int { return len(s.decls) }

// IsFinalized reports whether Finalize was called.
func (s *Scope) IsFinalized() bool { return s.finalized }

// Indexed reports whether lookups use the hash index.
func (s *Scope) Indexed() bool { return s.index != nil }

// Declare appends a declaration. It fails if the scope is finalized or
// already declares the name.
func (s *Scope) Declare(d Decl) error {
	if s.finalized {
		return ErrFinalized
	}
	if prev, ok := s.Lookup(d.Name()); ok {
		return fmt.Errorf("%w: %q already declared at %s", ErrDuplicate, d.Name(), prev.Token().StartPosition)
	}
	s.decls = append(s.decls, d)
	return nil
}

// Finalize freezes the scope and builds the hash index for large scopes.
// Calling it again has no effect.
func (s *Scope) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	n := len(s.decls)
	if n < IndexThreshold {
		return
	}
	size := (n*12 + 9) / 10
	if size <= n {
		size = n + 1
	}
	s.index = make([]int32, size)
	for i := range s.index {
		s.index[i] = -1
	}
	for i, d := range s.decls {
		slot := djb2(d.Name()) % uint32(size)
		for s.index[slot] != -1 {
			slot = (slot + 1) % uint32(size)
		}
		s.index[slot] = int32(i)
	}
}

// Lookup finds a declaration of this scope by exact name. Parents are not
// searched.
func (s *Scope) Lookup(name string) (Decl, bool) {
	if s.index != nil {
		size := uint32(len(s.index))
		slot := djb2(name) % size
		for i := uint32(0); i < size; i++ {
			at := s.index[slot]
			if at == -1 {
				return nil, false
			}
			if d := s.decls[at]; d.Name() == name {
				return d, true
			}
			slot = (slot + 1) % size
		}
		return nil, false
	}
	for _, d := range s.decls {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Resolve searches this scope and then each parent in turn. The innermost
// declaration wins.
func (s *Scope) Resolve(name string) (Decl, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.Lookup(name); ok {
			return d, cur, true
		}
	}
	return nil, nil, false
}

// Container returns the nearest scope, starting at s, that has an owner name.
func (s *Scope) Container() *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.owner != "" {
			return cur
		}
	}
	return s
}

func (s *Scope) String() string {
	if s.owner == "" {
		return s.kind.String()
	}
	return fmt.Sprintf("%s %s", s.kind, s.owner)
}

func djb2(name string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 + uint32(name[i])
	}
	return h
}
