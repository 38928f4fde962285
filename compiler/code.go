package compiler

import (
	"math"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/token"
	"github.com/ipa-lang/ipa/types"
)

// slot is a byte offset in the current frame. Argument slots are relative to
// the argument area until the function ends and the frame size is known.
type slot struct {
	off uint32
	arg bool
}

// value is a materialized expression result.
type value struct {
	slot
	size uint32
	temp bool
}

type field uint8

const (
	fieldA field = iota
	fieldB
	fieldC
)

type patch struct {
	ins   int
	field field
}

// code accumulates the instructions of one function together with the
// bookkeeping needed to lay out its frame.
type code struct {
	instructions []op.Instruction
	locations    []bytecode.SourceLocation

	// used marks the frame bytes held by locals and live temporaries.
	used []bool
	// high is one past the highest frame byte ever used.
	high uint32

	patches []patch
	pos     token.Position
}

// at sets the source position recorded for the following instructions.
func (c *code) at(tok token.Token) {
	c.pos = tok.StartPosition
}

func (c *code) emit(ins op.Instruction) int {
	c.instructions = append(c.instructions, ins)
	c.locations = append(c.locations, bytecode.LocationOf(c.pos))
	return len(c.instructions) - 1
}

// emitABC emits an instruction whose operands are frame slots. Operands that
// refer to the argument area are recorded for patching.
func (c *code) emitABC(code op.Code, a, b, cc slot) int {
	idx := c.emit(op.ABC(code, uint16(a.off), uint16(b.off), uint16(cc.off)))
	for f, s := range [...]slot{a, b, cc} {
		if s.arg {
			c.patches = append(c.patches, patch{ins: idx, field: field(f)})
		}
	}
	return idx
}

func (c *code) emitABx(code op.Code, a slot, bx uint32) int {
	idx := c.emit(op.ABx(code, uint16(a.off), bx))
	if a.arg {
		c.patches = append(c.patches, patch{ins: idx, field: fieldA})
	}
	return idx
}

// emitJump emits a jump with an unknown target and returns its index.
func (c *code) emitJump() int {
	return c.emit(op.AsBx(op.Jump, 0, 0))
}

// patchJump points the jump at idx to the next instruction to be emitted.
func (c *code) patchJump(idx int) {
	c.instructions[idx].SetBx(uint32(int32(len(c.instructions) - idx - 1)))
}

// jumpTo emits a jump to the instruction at target.
func (c *code) jumpTo(target int) {
	c.emit(op.AsBx(op.Jump, 0, int32(target-len(c.instructions)-1)))
}

func (c *code) position() int {
	return len(c.instructions)
}

// imm wraps an immediate operand.
func imm(v uint32) slot {
	return slot{off: v}
}

// alloc reserves size bytes aligned to align using the first free range.
func (c *code) alloc(size, align uint32) uint32 {
	if size == 0 {
		size = 1
	}
	var off uint32
	for {
		off = types.AlignUp(off, align)
		if c.free(off, size) {
			break
		}
		off += align
	}
	for uint32(len(c.used)) < off+size {
		c.used = append(c.used, false)
	}
	for i := off; i < off+size; i++ {
		c.used[i] = true
	}
	if off+size > c.high {
		c.high = off + size
	}
	return off
}

func (c *code) free(off, size uint32) bool {
	for i := off; i < off+size && i < uint32(len(c.used)); i++ {
		if c.used[i] {
			return false
		}
	}
	return true
}

func (c *code) temp(t types.Type) value {
	size := t.Size()
	return value{slot: slot{off: c.alloc(size, alignOf(t))}, size: size, temp: true}
}

// release returns the bytes of a temporary to the pool. Resident values are
// left alone.
func (c *code) release(v value) {
	if !v.temp {
		return
	}
	size := v.size
	if size == 0 {
		size = 1
	}
	for i := v.off; i < v.off+size && i < uint32(len(c.used)); i++ {
		c.used[i] = false
	}
}

// finish rounds the frame up to align and rebases argument operands behind
// it. It reports false when an operand no longer fits in 16 bits.
func (c *code) finish(align uint32) (uint32, bool) {
	frame := types.AlignUp(c.high, align)
	ok := frame <= math.MaxUint16
	for _, p := range c.patches {
		ins := &c.instructions[p.ins]
		var operand *uint16
		switch p.field {
		case fieldA:
			operand = &ins.A
		case fieldB:
			operand = &ins.B
		default:
			operand = &ins.C
		}
		v := uint32(*operand) + frame
		if v > math.MaxUint16 {
			ok = false
		}
		*operand = uint16(v)
	}
	return frame, ok
}

// alignOf returns the alignment of a value of t in a frame or the static
// heap: the size of a primitive and 8 for aggregates.
func alignOf(t types.Type) uint32 {
	if types.IsAggregate(t) {
		return 8
	}
	if s := t.Size(); s > 0 {
		return s
	}
	return 1
}

func (c *code) toBytecode() *bytecode.Code {
	ins := append(c.instructions, op.ABC(op.Empty, 0, 0, 0))
	locs := append(c.locations, bytecode.SourceLocation{})
	return bytecode.NewCode(ins, locs)
}
