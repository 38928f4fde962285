// Package op defines the opcodes and instruction format used by the IPA
// compiler and virtual machine.
//
// Most operations come in families. A type family holds one opcode per
// operation for a single primitive kind, so "s32.add" and "u8.add" are
// distinct opcodes. A size family does the same for operations that only
// depend on the width of a value, such as loads and stores.
package op

import (
	"fmt"

	"github.com/ipa-lang/ipa/types"
)

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	// Empty is a no-op. It also marks unused code slots.
	Empty Code = 0

	ReturnVoid Code = 1 // leave the function without a value
	If         Code = 2 // skip the next instruction when the byte at a is non-zero
	Jump       Code = 3 // ip += sbx
	CallLocal  Code = 4 // call the function whose handle is in slot b, result to a
	CallStatic Code = 5 // call the function whose handle is at static address bx, result to a
	Move       Code = 6 // copy c bytes from slot a to slot b
)

// Type family layout. Each family starts at TypeBase + i*TypeStride where i is
// the position of the kind in types.Kinds().
const (
	TypeBase   Code = 32
	TypeStride Code = 32
)

// Offsets within a type family. To is followed by one conversion per target
// kind, in types.Kinds() order.
const (
	To  Code = 0
	Add Code = 10 + iota - 1
	Sub
	Mul
	Div
	Mod
	Inc // a=variable b=destination c=1 for postfix
	Dec // a=variable b=destination c=1 for postfix
	Lt
	Le
	Gt
	Ge
	Eq
	Neq
	Shr
	typeOps
)

// Size family layout, placed after the last type family.
const (
	SizeBase   Code = TypeBase + 10*TypeStride
	SizeStride Code = 16
)

// Offsets within a size family.
const (
	Not          Code = iota // logical not of a bool
	Bor                      // a | b -> c
	Band                     // a & b -> c
	Bxor                     // a ^ b -> c
	Bnot                     // ^a -> b
	Shl                      // a << b -> c
	LoadConstant             // constant pool[bx] -> a
	LoadStatic               // static[bx] -> a
	SetLocal                 // a -> b
	SetStatic                // a -> static[bx]
	Return                   // return the value in a
	Arg                      // a -> outgoing argument offset b
	LoadIndex                // b[c] -> a
	SetIndex                 // a -> b[c]
	sizeOps
)

// NumCodes is one past the highest opcode.
const NumCodes = SizeBase + 4*SizeStride

var familyKinds = types.Kinds()

var sizes = [...]uint32{1, 2, 4, 8}

// TypeFamily returns the first opcode of the family of kind k. Bool values
// use the u8 family.
func TypeFamily(k types.Kind) (Code, bool) {
	if k == types.KindBool {
		k = types.KindU8
	}
	for i, fk := range familyKinds {
		if fk == k {
			return TypeBase + Code(i)*TypeStride, true
		}
	}
	return Empty, false
}

// SizeFamily returns the first opcode of the family for values of size bytes.
func SizeFamily(size uint32) (Code, bool) {
	for i, s := range sizes {
		if s == size {
			return SizeBase + Code(i)*SizeStride, true
		}
	}
	return Empty, false
}

// Convert returns the opcode that converts a value of kind from to kind to.
func Convert(from, to types.Kind) (Code, bool) {
	base, ok := TypeFamily(from)
	if !ok {
		return Empty, false
	}
	if to == types.KindBool {
		to = types.KindU8
	}
	for i, k := range familyKinds {
		if k == to {
			return base + To + Code(i), true
		}
	}
	return Empty, false
}

// TypeOp splits a type family opcode into its kind and offset.
func TypeOp(c Code) (types.Kind, Code, bool) {
	if c < TypeBase || c >= SizeBase {
		return types.KindInvalid, 0, false
	}
	rel := c - TypeBase
	off := rel % TypeStride
	if off >= typeOps {
		return types.KindInvalid, 0, false
	}
	return familyKinds[rel/TypeStride], off, true
}

// SizeOp splits a size family opcode into its byte size and offset.
func SizeOp(c Code) (uint32, Code, bool) {
	if c < SizeBase || c >= NumCodes {
		return 0, 0, false
	}
	rel := c - SizeBase
	off := rel % SizeStride
	if off >= sizeOps {
		return 0, 0, false
	}
	return sizes[rel/SizeStride], off, true
}

// ConvertTarget returns the destination kind of a conversion offset.
func ConvertTarget(off Code) (types.Kind, bool) {
	if off >= Add {
		return types.KindInvalid, false
	}
	return familyKinds[off-To], true
}

// Format describes how the operands of an instruction are used.
type Format uint8

const (
	FormatABC  Format = iota // three 16-bit operands
	FormatABx                // a plus a 32-bit bx made of b and c
	FormatAsBx               // a plus a signed 32-bit sbx
)

func (f Format) String() string {
	switch f {
	case FormatABx:
		return "ABx"
	case FormatAsBx:
		return "AsBx"
	default:
		return "ABC"
	}
}

// Info contains information about an opcode.
type Info struct {
	Code   Code
	Name   string
	Format Format
	// Arity is the number of operands the opcode reads, counting bx or sbx
	// as one.
	Arity int
}

var infos [NumCodes]Info

var typeOpNames = map[Code]struct {
	name  string
	arity int
}{
	Add: {"add", 3},
	Sub: {"sub", 3},
	Mul: {"mul", 3},
	Div: {"div", 3},
	Mod: {"mod", 3},
	Inc: {"inc", 3},
	Dec: {"dec", 3},
	Lt:  {"lt", 3},
	Le:  {"le", 3},
	Gt:  {"gt", 3},
	Ge:  {"ge", 3},
	Eq:  {"eq", 3},
	Neq: {"neq", 3},
	Shr: {"shr", 3},
}

var sizeOpInfos = [sizeOps]struct {
	name   string
	format Format
	arity  int
}{
	Not:          {"not", FormatABC, 2},
	Bor:          {"bor", FormatABC, 3},
	Band:         {"band", FormatABC, 3},
	Bxor:         {"bxor", FormatABC, 3},
	Bnot:         {"bnot", FormatABC, 2},
	Shl:          {"shl", FormatABC, 3},
	LoadConstant: {"loadc", FormatABx, 2},
	LoadStatic:   {"loads", FormatABx, 2},
	SetLocal:     {"setl", FormatABC, 2},
	SetStatic:    {"sets", FormatABx, 2},
	Return:       {"ret", FormatABC, 1},
	Arg:          {"arg", FormatABC, 2},
	LoadIndex:    {"loadi", FormatABC, 3},
	SetIndex:     {"seti", FormatABC, 3},
}

func init() {
	leading := []Info{
		{Empty, "nop", FormatABC, 0},
		{ReturnVoid, "retv", FormatABC, 0},
		{If, "if", FormatABC, 1},
		{Jump, "jmp", FormatAsBx, 1},
		{CallLocal, "call.local", FormatABC, 2},
		{CallStatic, "call.static", FormatABx, 2},
		{Move, "move", FormatABC, 3},
	}
	for _, info := range leading {
		infos[info.Code] = info
	}
	for _, k := range familyKinds {
		base, _ := TypeFamily(k)
		for i, to := range familyKinds {
			c := base + To + Code(i)
			infos[c] = Info{Code: c, Name: fmt.Sprintf("%s.to.%s", k, to), Format: FormatABC, Arity: 2}
		}
		for off, n := range typeOpNames {
			c := base + off
			infos[c] = Info{Code: c, Name: k.String() + "." + n.name, Format: FormatABC, Arity: n.arity}
		}
	}
	for _, size := range sizes {
		base, _ := SizeFamily(size)
		for off, n := range sizeOpInfos {
			c := base + Code(off)
			infos[c] = Info{Code: c, Name: fmt.Sprintf("%d.%s", size*8, n.name), Format: n.format, Arity: n.arity}
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes have
// an empty name.
func GetInfo(c Code) Info {
	if c >= NumCodes {
		return Info{Code: c}
	}
	return infos[c]
}

// IsValid reports whether c names an operation.
func (c Code) IsValid() bool {
	return GetInfo(c).Name != ""
}

func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return fmt.Sprintf("op(%d)", uint16(c))
}
