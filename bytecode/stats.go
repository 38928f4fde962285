package bytecode

// Stats contains statistics about a compiled program.
// This is useful for auditing programs before execution.
type Stats struct {
	// FunctionCount is the number of functions, including the initializer.
	FunctionCount int

	// InstructionCount is the total number of instructions.
	InstructionCount int

	// ConstantBytes is the size of the constant pool.
	ConstantBytes int

	// StaticBytes is the size of the static heap.
	StaticBytes int

	// MaxFrameSize is the largest frame plus argument area of any function.
	MaxFrameSize int
}
