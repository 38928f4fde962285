package ast

import (
	"fmt"
	"strings"

	"github.com/ipa-lang/ipa/types"
)

// Variable is a global, local, argument or struct member.
type Variable struct {
	node
	flags Flags
	// Annotation is the declared type, or nil when the type is inferred.
	Annotation *TypeRef
	// Value is the default value, or nil.
	Value Expr
	// Function is the function declaring a local or argument.
	Function *Function
	typ      types.Type
}

func (v *Variable) declNode()            {}
func (v *Variable) Name() string         { return v.tok.Literal }
func (v *Variable) Flags() Flags         { return v.flags }
func (v *Variable) Type() types.Type     { return v.typ }
func (v *Variable) SetType(t types.Type) { v.typ = t }
func (v *Variable) IsConst() bool        { return v.flags.Has(Const) }
func (v *Variable) IsLocal() bool        { return v.flags.Has(Local) }
func (v *Variable) IsGlobal() bool       { return v.flags.Has(Global) }
func (v *Variable) IsMember() bool       { return v.flags.Has(Member) }

// ArgIndex returns the position of the variable in its function's argument
// list, or -1 when it is not an argument.
func (v *Variable) ArgIndex() int {
	if v.Function == nil {
		return -1
	}
	for i, a := range v.Function.Args {
		if a == v {
			return i
		}
	}
	return -1
}

func (v *Variable) String() string {
	var b strings.Builder
	b.WriteString(v.Name())
	if v.Annotation != nil {
		b.WriteString(": ")
		b.WriteString(v.Annotation.String())
	}
	if v.Value != nil {
		b.WriteString(" := ")
		b.WriteString(v.Value.String())
	}
	return b.String()
}

// Function is a function declaration.
type Function struct {
	node
	flags Flags
	// Args are the arguments in declaration order.
	Args []*Variable
	// Return is the declared return type or nil for void.
	Return *TypeRef
	// Body is the top block of the function.
	Body *Block
	// Locals are every local of the function in declaration order.
	Locals []*Variable
	// Scope holds the arguments and is the parent of references made in
	// the body.
	Scope *Scope
	sig   *types.Callable
}

func (f *Function) declNode()    {}
func (f *Function) Name() string { return f.tok.Literal }
func (f *Function) Flags() Flags { return f.flags }

// Type returns the callable type once inferred.
func (f *Function) Type() types.Type {
	if f.sig == nil {
		return nil
	}
	return f.sig
}

// Signature returns the callable type or nil.
func (f *Function) Signature() *types.Callable { return f.sig }

// SetSignature is called by the type inferer.
func (f *Function) SetSignature(c *types.Callable) { f.sig = c }

func (f *Function) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", f.Name(), strings.Join(args, ", "), ret)
}

// Struct is a struct declaration. Its members are declared in Scope.
type Struct struct {
	node
	flags Flags
	Scope *Scope
	typ   *types.Struct
}

func (s *Struct) declNode()    {}
func (s *Struct) Name() string { return s.tok.Literal }
func (s *Struct) Flags() Flags { return s.flags }

// Type returns the struct type once inferred.
func (s *Struct) Type() types.Type {
	if s.typ == nil {
		return nil
	}
	return s.typ
}

// StructType returns the struct type or nil.
func (s *Struct) StructType() *types.Struct { return s.typ }

// SetStructType is called by the type inferer.
func (s *Struct) SetStructType(t *types.Struct) { s.typ = t }

// Members returns the member variables in declaration order.
func (s *Struct) Members() []*Variable {
	var out []*Variable
	for _, d := range s.Scope.Decls() {
		if v, ok := d.(*Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *Struct) String() string {
	return "struct " + s.Name()
}

// TypeRefKind tells the shapes of a type annotation apart.
type TypeRefKind uint8

const (
	TypePrimitive TypeRefKind = iota
	TypeNamed
	TypeArray
)

// TypeRef is the syntax of a type annotation.
type TypeRef struct {
	node
	Kind TypeRefKind
	// Primitive is set for TypePrimitive.
	Primitive *types.Primitive
	// Struct is bound by the resolver for TypeNamed.
	Struct *Struct
	// Elem and Len describe a TypeArray.
	Elem *TypeRef
	Len  uint32
}

func (t *TypeRef) String() string {
	switch t.Kind {
	case TypePrimitive:
		return t.Primitive.String()
	case TypeArray:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem)
	default:
		return t.tok.Literal
	}
}
