package vm

import (
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
)

// frame is one activation. Its locals start at fp and its arguments at
// fp + fn.FrameSize().
type frame struct {
	fn   *bytecode.Function
	code []op.Instruction
	fp   uint32
	ip   int
	// ret is the absolute stack offset receiving the return value. It is
	// unused for the bottom frame, whose value goes to the host.
	ret uint32
}

// top returns the end of the frame's stack area, where a callee's frame
// begins.
func (f *frame) top() uint32 {
	return f.fp + f.fn.FrameSize() + f.fn.ArgsSize()
}

func (f *frame) location() bytecode.SourceLocation {
	return f.fn.Code().LocationAt(f.ip)
}
