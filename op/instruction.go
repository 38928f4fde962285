package op

import "fmt"

// Instruction is a single decoded instruction. It occupies 8 bytes: the
// opcode and three 16-bit operands. B and C together form the 32-bit bx
// operand of the ABx and AsBx formats.
type Instruction struct {
	Code Code
	A    uint16
	B    uint16
	C    uint16
}

// ABC builds a three-operand instruction.
func ABC(c Code, a, b, cc uint16) Instruction {
	return Instruction{Code: c, A: a, B: b, C: cc}
}

// ABx builds an instruction with a 32-bit unsigned operand.
func ABx(c Code, a uint16, bx uint32) Instruction {
	return Instruction{Code: c, A: a, B: uint16(bx), C: uint16(bx >> 16)}
}

// AsBx builds an instruction with a 32-bit signed operand.
func AsBx(c Code, a uint16, sbx int32) Instruction {
	return ABx(c, a, uint32(sbx))
}

// Bx returns the 32-bit operand made of B and C.
func (i Instruction) Bx() uint32 {
	return uint32(i.B) | uint32(i.C)<<16
}

// SBx returns Bx as a signed value.
func (i Instruction) SBx() int32 {
	return int32(i.Bx())
}

// SetBx replaces the 32-bit operand.
func (i *Instruction) SetBx(bx uint32) {
	i.B = uint16(bx)
	i.C = uint16(bx >> 16)
}

// Encode packs the instruction into a uint64, opcode in the low 16 bits.
func (i Instruction) Encode() uint64 {
	return uint64(i.Code) | uint64(i.A)<<16 | uint64(i.B)<<32 | uint64(i.C)<<48
}

// Decode unpacks an instruction produced by Encode.
func Decode(v uint64) Instruction {
	return Instruction{
		Code: Code(v),
		A:    uint16(v >> 16),
		B:    uint16(v >> 32),
		C:    uint16(v >> 48),
	}
}

func (i Instruction) String() string {
	info := GetInfo(i.Code)
	switch info.Format {
	case FormatABx:
		return fmt.Sprintf("%s %d %d", i.Code, i.A, i.Bx())
	case FormatAsBx:
		return fmt.Sprintf("%s %d %+d", i.Code, i.A, i.SBx())
	}
	return fmt.Sprintf("%s %d %d %d", i.Code, i.A, i.B, i.C)
}
