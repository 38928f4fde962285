package bytecode

import (
	"github.com/ipa-lang/ipa/op"
)

// Code is the instruction stream of a function body. It is immutable after
// creation and safe for concurrent use.
type Code struct {
	instructions []op.Instruction

	// Source map: one location per instruction for error reporting
	locations []SourceLocation
}

// NewCode returns a Code holding copies of the given slices. locations may be
// nil or shorter than instructions.
func NewCode(instructions []op.Instruction, locations []SourceLocation) *Code {
	return &Code{
		instructions: copySlice(instructions),
		locations:    copySlice(locations),
	}
}

// InstructionCount returns the number of instructions.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction at the given index.
func (c *Code) InstructionAt(index int) op.Instruction {
	return c.instructions[index]
}

// Instructions returns a copy of the instruction stream.
func (c *Code) Instructions() []op.Instruction {
	return copySlice(c.instructions)
}

// LocationAt returns the source location of the instruction at ip, or a zero
// location when none was recorded.
func (c *Code) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return SourceLocation{}
	}
	return c.locations[ip]
}

// LocationCount returns the number of recorded source locations.
func (c *Code) LocationCount() int {
	return len(c.locations)
}

// Encode packs the instruction stream as uint64 values.
func (c *Code) Encode() []uint64 {
	out := make([]uint64, len(c.instructions))
	for i, ins := range c.instructions {
		out[i] = ins.Encode()
	}
	return out
}
