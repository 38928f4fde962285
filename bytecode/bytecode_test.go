package bytecode

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

func testProgram() *Program {
	s32, _ := op.TypeFamily(types.KindS32)
	size32, _ := op.SizeFamily(4)
	add := NewFunction(FunctionParams{
		Name:       "add",
		Module:     "main",
		Index:      0,
		Address:    0,
		FrameSize:  8,
		ArgsSize:   8,
		ArgKinds:   []types.Kind{types.KindS32, types.KindS32},
		ArgOffsets: []uint32{0, 4},
		ReturnKind: types.KindS32,
		Code: NewCode([]op.Instruction{
			op.ABC(s32+op.Add, 8, 12, 0),
			op.ABC(size32+op.Return, 0, 0, 0),
		}, []SourceLocation{{Line: 2, Column: 5}, {Line: 2, Column: 5}}),
	})
	initFn := NewFunction(FunctionParams{
		Name:       InitName,
		Index:      1,
		ReturnKind: types.KindVoid,
		Code: NewCode([]op.Instruction{
			op.ABx(size32+op.LoadConstant, 0, 0),
			op.ABx(size32+op.SetStatic, 0, 4),
			op.ABC(op.ReturnVoid, 0, 0, 0),
		}, nil),
		FrameSize: 8,
	})
	return NewProgram(ProgramParams{
		Functions:  []*Function{add, initFn},
		Constants:  []byte{7, 0, 0, 0},
		StaticSize: 8,
		InitIndex:  1,
		Globals:    []Global{{Name: "seven", Module: "main", Address: 4, Size: 4, Kind: types.KindS32}},
	})
}

func TestProgramAccessors(t *testing.T) {
	p := testProgram()
	require.NotEqual(t, uuid.Nil, p.ID())
	require.Equal(t, 2, p.FunctionCount())
	require.Equal(t, InitName, p.InitFunction().Name())

	fn, ok := p.Lookup("main.add")
	require.True(t, ok)
	require.Equal(t, 0, fn.Index())
	fn, ok = p.Lookup("add")
	require.True(t, ok)
	require.Equal(t, "func main.add(s32, s32) -> s32", fn.String())
	_, ok = p.Lookup(InitName)
	require.False(t, ok)

	require.Equal(t, Stats{
		FunctionCount:    2,
		InstructionCount: 5,
		ConstantBytes:    4,
		StaticBytes:      8,
		MaxFrameSize:     16,
	}, p.Stats())
}

func TestConstructorsCopyInput(t *testing.T) {
	ins := []op.Instruction{op.ABC(op.ReturnVoid, 0, 0, 0)}
	code := NewCode(ins, nil)
	ins[0] = op.ABC(op.Move, 1, 2, 3)
	require.Equal(t, op.ReturnVoid, code.InstructionAt(0).Code)
	require.True(t, code.LocationAt(0).IsZero())

	pool := []byte{1, 2}
	p := NewProgram(ProgramParams{Constants: pool, InitIndex: -1})
	pool[0] = 9
	require.Equal(t, []byte{1, 2}, p.Constants())
	require.Nil(t, p.InitFunction())
}

func TestMarshalRoundTrip(t *testing.T) {
	p := testProgram()
	data, err := Marshal(p)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, p.ID(), restored.ID())
	require.Equal(t, p.Stats(), restored.Stats())
	require.Equal(t, p.Constants(), restored.Constants())
	require.Equal(t, p.GlobalAt(0), restored.GlobalAt(0))

	for i := 0; i < p.FunctionCount(); i++ {
		want, got := p.FunctionAt(i), restored.FunctionAt(i)
		require.Equal(t, want.QualifiedName(), got.QualifiedName())
		require.Equal(t, want.Layout(), got.Layout())
		require.Equal(t, want.ReturnKind(), got.ReturnKind())
		require.Equal(t, want.ArgCount(), got.ArgCount())
		require.Equal(t, want.Code().Instructions(), got.Code().Instructions())
		require.Equal(t, want.Code().LocationAt(1), got.Code().LocationAt(1))
	}

	again, err := Marshal(restored)
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestUnmarshalRejectsOtherVersions(t *testing.T) {
	data, err := cborEncMode.Marshal(programImage{Version: 99})
	require.NoError(t, err)
	_, err = Unmarshal(data)
	require.ErrorIs(t, err, ErrImageVersion)

	_, err = Unmarshal([]byte{0xff})
	require.Error(t, err)

	bad, err := cbor.Marshal(map[int]any{1: ImageVersion, 2: []byte{1, 2}})
	require.NoError(t, err)
	_, err = Unmarshal(bad)
	require.ErrorContains(t, err, "invalid build id")
}
