package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

func typed(k types.Kind, off op.Code) op.Code {
	base, _ := op.TypeFamily(k)
	return base + off
}

func sized(size uint32, off op.Code) op.Code {
	base, _ := op.SizeFamily(size)
	return base + off
}

func TestDisassembleText(t *testing.T) {
	conv, ok := op.Convert(types.KindS8, types.KindS64)
	require.True(t, ok)
	code := bytecode.NewCode([]op.Instruction{
		op.ABC(typed(types.KindS32, op.Add), 8, 12, 16),
		op.ABC(conv, 0, 8, 0),
		op.ABx(sized(4, op.LoadConstant), 4, 0),
		op.AsBx(op.Jump, 0, 3),
		op.ABC(typed(types.KindU8, op.Inc), 8, 0, 1),
		op.ABx(sized(2, op.SetStatic), 6, 24),
		op.ABC(sized(8, op.Arg), 16, 8, 0),
		op.ABC(sized(4, op.LoadIndex), 0, 8, 4),
		op.ABx(op.CallStatic, 32, 4),
		op.ABC(op.ReturnVoid, 0, 0, 0),
	}, nil)

	instructions, err := Disassemble(code)
	require.Nil(t, err)
	var lines []string
	for _, ins := range instructions {
		lines = append(lines, ins.String())
	}
	require.Equal(t, []string{
		"s32.add 8 12 -> 16",
		"s8.to.s64 0 -> 8",
		"32.loadc #0 -> 4",
		"jmp +3",
		"u8.inc 8 -> 0",
		"16.sets 6 -> @24",
		"64.arg 16 -> out+8",
		"32.loadi 8[4] -> 0",
		"call.static @4 -> 32",
		"retv",
	}, lines)

	require.Equal(t, "to 7", instructions[3].Annotation)
	require.Equal(t, "postfix", instructions[4].Annotation)
	require.Equal(t, []uint32{4, 0}, instructions[2].Operands)
	require.Equal(t, []uint32{8, 12, 16}, instructions[0].Operands)
}

func TestDisassembleInvalidOpcode(t *testing.T) {
	code := bytecode.NewCode([]op.Instruction{{Code: op.NumCodes + 1}}, nil)
	_, err := Disassemble(code)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid opcode")
}

func TestPrintProgram(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	add := bytecode.NewFunction(bytecode.FunctionParams{
		Name:       "add",
		Module:     "main",
		Address:    0,
		FrameSize:  8,
		ArgsSize:   8,
		ArgKinds:   []types.Kind{types.KindS32, types.KindS32},
		ArgOffsets: []uint32{0, 4},
		ReturnKind: types.KindS32,
		Code: bytecode.NewCode([]op.Instruction{
			op.ABx(sized(4, op.LoadConstant), 0, 4),
			op.ABC(typed(types.KindS32, op.Add), 8, 0, 0),
			op.ABC(sized(4, op.Return), 0, 0, 0),
			{},
		}, nil),
	})
	p := bytecode.NewProgram(bytecode.ProgramParams{
		Functions:  []*bytecode.Function{add},
		Constants:  []byte{0, 0, 0, 0, 7, 0, 0, 0},
		StaticSize: 8,
		InitIndex:  -1,
	})

	var buf bytes.Buffer
	require.Nil(t, PrintProgram(p, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "func main.add(s32, s32) -> s32  frame=8 args=8 handle=@0", lines[0])
	require.Equal(t, "    0  32.loadc  #4 -> 0   =0x7", lines[1])
	require.Equal(t, "    1  s32.add   8 0 -> 0", lines[2])
	require.Equal(t, "    2  32.ret    0", lines[3])
	require.Equal(t, "    3  nop", lines[4])
}

func TestDisassembleConstantOutOfRange(t *testing.T) {
	fn := bytecode.NewFunction(bytecode.FunctionParams{
		Name: "f",
		Code: bytecode.NewCode([]op.Instruction{op.ABx(sized(8, op.LoadConstant), 0, 4)}, nil),
	})
	p := bytecode.NewProgram(bytecode.ProgramParams{
		Functions: []*bytecode.Function{fn},
		Constants: make([]byte, 8),
		InitIndex: -1,
	})
	_, err := DisassembleFunction(p, fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of range")
}
