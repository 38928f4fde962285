package bytecode

import (
	"github.com/gofrs/uuid"

	"github.com/ipa-lang/ipa/types"
)

// InitName is the name of the synthetic function that initializes globals.
const InitName = "<init>"

// Global describes a global variable in the static heap.
type Global struct {
	Name    string
	Module  string
	Address uint32
	Size    uint32
	// Kind is KindInvalid for struct and array globals.
	Kind types.Kind
}

// Program is the output of a build. It is immutable after creation.
type Program struct {
	id         uuid.UUID
	functions  []*Function
	constants  []byte
	staticSize uint32
	initIndex  int
	globals    []Global
}

// ProgramParams contains parameters for creating a new Program.
type ProgramParams struct {
	// ID is the build id. A new random id is generated when it is nil.
	ID         uuid.UUID
	Functions  []*Function
	// Constants is the constant pool. Constants are addressed by byte
	// offset and aligned to their size.
	Constants  []byte
	StaticSize uint32
	// InitIndex is the index of the initializer function, or -1.
	InitIndex int
	Globals   []Global
}

// NewProgram creates a new immutable Program from the given parameters.
func NewProgram(params ProgramParams) *Program {
	id := params.ID
	if id == uuid.Nil {
		id = uuid.Must(uuid.NewV4())
	}
	return &Program{
		id:         id,
		functions:  copySlice(params.Functions),
		constants:  copySlice(params.Constants),
		staticSize: params.StaticSize,
		initIndex:  params.InitIndex,
		globals:    copySlice(params.Globals),
	}
}

// ID returns the build id.
func (p *Program) ID() uuid.UUID {
	return p.id
}

// FunctionCount returns the number of functions, including the initializer.
func (p *Program) FunctionCount() int {
	return len(p.functions)
}

// FunctionAt returns the function at the given index.
func (p *Program) FunctionAt(index int) *Function {
	return p.functions[index]
}

// Lookup finds a function by qualified name ("module.name") or, failing
// that, by bare name. The first function in program order wins.
func (p *Program) Lookup(name string) (*Function, bool) {
	for _, fn := range p.functions {
		if fn.QualifiedName() == name {
			return fn, true
		}
	}
	for _, fn := range p.functions {
		if fn.Name() == name && fn.Name() != InitName {
			return fn, true
		}
	}
	return nil, false
}

// InitFunction returns the initializer, or nil when the program has no
// globals to initialize.
func (p *Program) InitFunction() *Function {
	if p.initIndex < 0 || p.initIndex >= len(p.functions) {
		return nil
	}
	return p.functions[p.initIndex]
}

// Constants returns a copy of the constant pool.
func (p *Program) Constants() []byte {
	return copySlice(p.constants)
}

// ConstantBytes returns the size of the constant pool.
func (p *Program) ConstantBytes() int {
	return len(p.constants)
}

// StaticSize returns the size of the static heap.
func (p *Program) StaticSize() uint32 {
	return p.staticSize
}

// GlobalCount returns the number of globals.
func (p *Program) GlobalCount() int {
	return len(p.globals)
}

// GlobalAt returns the global at the given index.
func (p *Program) GlobalAt(index int) Global {
	return p.globals[index]
}

// Stats returns statistics about the program.
func (p *Program) Stats() Stats {
	s := Stats{
		FunctionCount: len(p.functions),
		ConstantBytes: len(p.constants),
		StaticBytes:   int(p.staticSize),
	}
	for _, fn := range p.functions {
		s.InstructionCount += fn.Code().InstructionCount()
		if size := int(fn.FrameSize() + fn.ArgsSize()); size > s.MaxFrameSize {
			s.MaxFrameSize = size
		}
	}
	return s
}
