// Package types describes the types of IPA values.
//
// # Primitives
//
// Primitive types live in a read-only table built once from a composite
// literal. Get and Lookup always return the same pointer for the same kind, so
// primitives compare by identity.
//
// # Aggregates
//
// Callable, Struct and Array types are created per compilation. Their layout
// (size, alignment and member offsets) is computed at construction time.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by *Primitive, *Callable, *Struct and *Array.
type Type interface {
	// Size returns the number of bytes a value of the type occupies.
	Size() uint32
	// Align returns the required alignment of a value of the type.
	Align() uint32
	String() string
	isType()
}

// Kind enumerates the primitive types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindS8
	KindU8
	KindS16
	KindU16
	KindS32
	KindU32
	KindS64
	KindU64
	KindF32
	KindF64
	kindCount
)

// Flags describe the numeric category of a primitive.
type Flags uint8

const (
	FlagSigned Flags = 1 << iota
	FlagUnsigned
	FlagInteger
	FlagDecimal
)

// Category is the widening class of a primitive. Values only widen within a
// category.
type Category uint8

const (
	CategoryNone Category = iota
	CategorySigned
	CategoryUnsigned
	CategoryDecimal
)

func (c Category) String() string {
	switch c {
	case CategorySigned:
		return "signed"
	case CategoryUnsigned:
		return "unsigned"
	case CategoryDecimal:
		return "decimal"
	default:
		return "none"
	}
}

// Primitive is a scalar type.
type Primitive struct {
	kind  Kind
	size  uint32
	flags Flags
	name  string
}

var primitives = [kindCount]*Primitive{
	KindVoid: {kind: KindVoid, name: "void"},
	KindBool: {kind: KindBool, size: 1, name: "bool"},
	KindS8:   {kind: KindS8, size: 1, flags: FlagSigned | FlagInteger, name: "s8"},
	KindU8:   {kind: KindU8, size: 1, flags: FlagUnsigned | FlagInteger, name: "u8"},
	KindS16:  {kind: KindS16, size: 2, flags: FlagSigned | FlagInteger, name: "s16"},
	KindU16:  {kind: KindU16, size: 2, flags: FlagUnsigned | FlagInteger, name: "u16"},
	KindS32:  {kind: KindS32, size: 4, flags: FlagSigned | FlagInteger, name: "s32"},
	KindU32:  {kind: KindU32, size: 4, flags: FlagUnsigned | FlagInteger, name: "u32"},
	KindS64:  {kind: KindS64, size: 8, flags: FlagSigned | FlagInteger, name: "s64"},
	KindU64:  {kind: KindU64, size: 8, flags: FlagUnsigned | FlagInteger, name: "u64"},
	KindF32:  {kind: KindF32, size: 4, flags: FlagSigned | FlagDecimal, name: "f32"},
	KindF64:  {kind: KindF64, size: 8, flags: FlagSigned | FlagDecimal, name: "f64"},
}

// The primitive types.
var (
	Void = primitives[KindVoid]
	Bool = primitives[KindBool]
	S8   = primitives[KindS8]
	U8   = primitives[KindU8]
	S16  = primitives[KindS16]
	U16  = primitives[KindU16]
	S32  = primitives[KindS32]
	U32  = primitives[KindU32]
	S64  = primitives[KindS64]
	U64  = primitives[KindU64]
	F32  = primitives[KindF32]
	F64  = primitives[KindF64]
)

// Get returns the primitive of the given kind, or nil for KindInvalid.
func Get(k Kind) *Primitive {
	if k >= kindCount {
		return nil
	}
	return primitives[k]
}

// Lookup returns the primitive spelled name, such as "s32".
func Lookup(name string) (*Primitive, bool) {
	for _, p := range primitives {
		if p != nil && p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Kinds returns the numeric kinds in opcode family order.
func Kinds() []Kind {
	return []Kind{KindS8, KindU8, KindS16, KindU16, KindS32, KindU32, KindS64, KindU64, KindF32, KindF64}
}

func (k Kind) String() string {
	if p := Get(k); p != nil {
		return p.name
	}
	return "invalid"
}

// Size returns the byte width of the kind.
func (k Kind) Size() uint32 {
	if p := Get(k); p != nil {
		return p.size
	}
	return 0
}

func (p *Primitive) isType() {}

func (p *Primitive) Kind() Kind      { return p.kind }
func (p *Primitive) Size() uint32    { return p.size }
func (p *Primitive) String() string  { return p.name }
func (p *Primitive) Flags() Flags    { return p.flags }
func (p *Primitive) IsVoid() bool    { return p.kind == KindVoid }
func (p *Primitive) IsBool() bool    { return p.kind == KindBool }
func (p *Primitive) IsInteger() bool { return p.flags&FlagInteger != 0 }
func (p *Primitive) IsDecimal() bool { return p.flags&FlagDecimal != 0 }
func (p *Primitive) IsNumeric() bool { return p.IsInteger() || p.IsDecimal() }

// IsSigned reports whether the type is a signed integer or a decimal.
func (p *Primitive) IsSigned() bool { return p.flags&FlagSigned != 0 }

// IsUnsigned reports whether the type is an unsigned integer.
func (p *Primitive) IsUnsigned() bool { return p.flags&FlagUnsigned != 0 }

// Align returns the natural alignment, which equals the size.
func (p *Primitive) Align() uint32 {
	if p.size == 0 {
		return 1
	}
	return p.size
}

// Category returns the widening class.
func (p *Primitive) Category() Category {
	switch {
	case p.IsDecimal():
		return CategoryDecimal
	case p.IsInteger() && p.IsUnsigned():
		return CategoryUnsigned
	case p.IsInteger():
		return CategorySigned
	default:
		return CategoryNone
	}
}

// Callable is the type of a function value. At runtime a callable is a
// 4-byte function index.
type Callable struct {
	Return  Type
	Args    []Type
	offsets []uint32
	argSize uint32
}

// NewCallable returns a callable type and computes its argument layout.
func NewCallable(ret Type, args []Type) *Callable {
	if ret == nil {
		ret = Void
	}
	c := &Callable{Return: ret, Args: args}
	c.offsets, c.argSize = Layout(args)
	c.argSize = AlignUp(c.argSize, 8)
	return c
}

func (c *Callable) isType()       {}
func (c *Callable) Size() uint32  { return 4 }
func (c *Callable) Align() uint32 { return 4 }

// ArgOffset returns the byte offset of argument i in the argument area.
func (c *Callable) ArgOffset(i int) uint32 { return c.offsets[i] }

// ArgsSize returns the size of the argument area rounded up to 8 bytes.
func (c *Callable) ArgsSize() uint32 { return c.argSize }

func (c *Callable) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(c.Return.String())
	return sb.String()
}

// Field is a member of a struct type.
type Field struct {
	Name   string
	Type   Type
	Offset uint32
}

// Struct is a flat record type.
type Struct struct {
	Name   string
	Fields []Field
	size   uint32
	align  uint32
}

// NewStruct lays out the given fields in order. Field offsets passed in are
// ignored.
func NewStruct(name string, fields []Field) *Struct {
	s := &Struct{Name: name, Fields: fields, align: 1}
	var offset uint32
	for i := range s.Fields {
		t := s.Fields[i].Type
		offset = AlignUp(offset, t.Align())
		s.Fields[i].Offset = offset
		offset += t.Size()
		if t.Align() > s.align {
			s.align = t.Align()
		}
	}
	s.size = AlignUp(offset, s.align)
	return s
}

func (s *Struct) isType()        {}
func (s *Struct) Size() uint32   { return s.size }
func (s *Struct) Align() uint32  { return s.align }
func (s *Struct) String() string { return s.Name }

// Field returns the named field.
func (s *Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Array is a fixed-length sequence of elements.
type Array struct {
	Elem Type
	Len  uint32
}

func (a *Array) isType()        {}
func (a *Array) Size() uint32   { return a.Elem.Size() * a.Len }
func (a *Array) Align() uint32  { return a.Elem.Align() }
func (a *Array) String() string { return fmt.Sprintf("[%d]%s", a.Len, a.Elem) }

// AlignUp rounds offset up to a multiple of align.
func AlignUp(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + align - r
	}
	return offset
}

// Layout places values of the given types one after another, each at its
// natural alignment, and returns their offsets and the total size.
func Layout(ts []Type) ([]uint32, uint32) {
	offsets := make([]uint32, len(ts))
	var offset uint32
	for i, t := range ts {
		offset = AlignUp(offset, t.Align())
		offsets[i] = offset
		offset += t.Size()
	}
	return offsets, offset
}

// AsPrimitive returns t as a primitive if it is one.
func AsPrimitive(t Type) (*Primitive, bool) {
	p, ok := t.(*Primitive)
	return p, ok
}

// IsAggregate reports whether values of the type do not fit a single
// register-sized slot.
func IsAggregate(t Type) bool {
	switch t.(type) {
	case *Struct, *Array:
		return true
	}
	return false
}
