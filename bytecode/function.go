package bytecode

import (
	"bytes"
	"fmt"

	"github.com/ipa-lang/ipa/types"
)

// Function represents a compiled function. It is immutable after creation
// and holds everything a runtime needs to build an activation: the frame
// size, the layout of the argument area and the return kind.
type Function struct {
	name       string
	module     string
	index      int
	address    uint32
	frameSize  uint32
	argsSize   uint32
	argKinds   []types.Kind
	argOffsets []uint32
	returnKind types.Kind
	code       *Code
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	Name   string
	Module string
	// Index is the position of the function in its program.
	Index int
	// Address is the static heap address of the function's 4-byte handle.
	Address uint32
	// FrameSize is the size of locals and temporaries, a multiple of 8.
	FrameSize  uint32
	ArgsSize   uint32
	ArgKinds   []types.Kind
	ArgOffsets []uint32
	ReturnKind types.Kind
	Code       *Code
}

// NewFunction creates a new immutable Function from the given parameters.
// Input slices are copied to ensure immutability.
func NewFunction(params FunctionParams) *Function {
	code := params.Code
	if code == nil {
		code = NewCode(nil, nil)
	}
	return &Function{
		name:       params.Name,
		module:     params.Module,
		index:      params.Index,
		address:    params.Address,
		frameSize:  params.FrameSize,
		argsSize:   params.ArgsSize,
		argKinds:   copySlice(params.ArgKinds),
		argOffsets: copySlice(params.ArgOffsets),
		returnKind: params.ReturnKind,
		code:       code,
	}
}

// Name returns the function name.
func (f *Function) Name() string {
	return f.name
}

// Module returns the name of the module declaring the function.
func (f *Function) Module() string {
	return f.module
}

// QualifiedName returns "module.name", or the bare name for synthetic
// functions without a module.
func (f *Function) QualifiedName() string {
	if f.module == "" {
		return f.name
	}
	return f.module + "." + f.name
}

// Index returns the position of the function in its program. It is the
// value stored in the function's handle.
func (f *Function) Index() int {
	return f.index
}

// Address returns the static address of the function's handle.
func (f *Function) Address() uint32 {
	return f.address
}

// FrameSize returns the size of the locals and temporaries area.
func (f *Function) FrameSize() uint32 {
	return f.frameSize
}

// ArgsSize returns the size of the argument area, rounded up to 8.
func (f *Function) ArgsSize() uint32 {
	return f.argsSize
}

// ArgCount returns the number of parameters.
func (f *Function) ArgCount() int {
	return len(f.argKinds)
}

// ArgKind returns the kind of parameter i.
func (f *Function) ArgKind(i int) types.Kind {
	return f.argKinds[i]
}

// ArgOffset returns the offset of parameter i within the argument area.
func (f *Function) ArgOffset(i int) uint32 {
	return f.argOffsets[i]
}

// ReturnKind returns the kind of the returned value, KindVoid for none.
func (f *Function) ReturnKind() types.Kind {
	return f.returnKind
}

// Code returns the compiled body.
func (f *Function) Code() *Code {
	return f.code
}

// String returns a header such as "func main.add(s32, s32) -> s32".
func (f *Function) String() string {
	var out bytes.Buffer
	out.WriteString("func ")
	out.WriteString(f.QualifiedName())
	out.WriteString("(")
	for i, k := range f.argKinds {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(k.String())
	}
	out.WriteString(")")
	if f.returnKind != types.KindVoid {
		out.WriteString(" -> " + f.returnKind.String())
	}
	return out.String()
}

// Layout describes the frame of the function for listings.
func (f *Function) Layout() string {
	return fmt.Sprintf("frame=%d args=%d handle=@%d", f.frameSize, f.argsSize, f.address)
}
