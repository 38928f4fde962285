package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid"

	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

// ImageVersion is the version of the image format written by Marshal.
const ImageVersion = 1

// ErrImageVersion is returned by Unmarshal for images of another version.
var ErrImageVersion = errors.New("unsupported image version")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type programImage struct {
	Version    int             `cbor:"1,keyasint"`
	ID         []byte          `cbor:"2,keyasint"`
	Functions  []functionImage `cbor:"3,keyasint"`
	Constants  []byte          `cbor:"4,keyasint,omitempty"`
	StaticSize uint32          `cbor:"5,keyasint"`
	InitIndex  int             `cbor:"6,keyasint"`
	Globals    []globalImage   `cbor:"7,keyasint,omitempty"`
}

type functionImage struct {
	Name       string   `cbor:"1,keyasint"`
	Module     string   `cbor:"2,keyasint,omitempty"`
	Address    uint32   `cbor:"3,keyasint"`
	FrameSize  uint32   `cbor:"4,keyasint"`
	ArgsSize   uint32   `cbor:"5,keyasint"`
	ArgKinds   []uint8  `cbor:"6,keyasint,omitempty"`
	ArgOffsets []uint32 `cbor:"7,keyasint,omitempty"`
	ReturnKind uint8    `cbor:"8,keyasint"`
	Code       []uint64 `cbor:"9,keyasint"`
	Lines      []int    `cbor:"10,keyasint,omitempty"`
	Columns    []int    `cbor:"11,keyasint,omitempty"`
}

type globalImage struct {
	Name    string `cbor:"1,keyasint"`
	Module  string `cbor:"2,keyasint"`
	Address uint32 `cbor:"3,keyasint"`
	Size    uint32 `cbor:"4,keyasint"`
	Kind    uint8  `cbor:"5,keyasint"`
}

// Marshal serializes a Program to a canonical CBOR image.
func Marshal(p *Program) ([]byte, error) {
	img := programImage{
		Version:    ImageVersion,
		ID:         p.id.Bytes(),
		Constants:  p.constants,
		StaticSize: p.staticSize,
		InitIndex:  p.initIndex,
	}
	for _, fn := range p.functions {
		fi := functionImage{
			Name:       fn.name,
			Module:     fn.module,
			Address:    fn.address,
			FrameSize:  fn.frameSize,
			ArgsSize:   fn.argsSize,
			ArgOffsets: fn.argOffsets,
			ReturnKind: uint8(fn.returnKind),
			Code:       fn.code.Encode(),
		}
		for _, k := range fn.argKinds {
			fi.ArgKinds = append(fi.ArgKinds, uint8(k))
		}
		for _, loc := range fn.code.locations {
			fi.Lines = append(fi.Lines, loc.Line)
			fi.Columns = append(fi.Columns, loc.Column)
		}
		img.Functions = append(img.Functions, fi)
	}
	for _, g := range p.globals {
		img.Globals = append(img.Globals, globalImage{
			Name:    g.Name,
			Module:  g.Module,
			Address: g.Address,
			Size:    g.Size,
			Kind:    uint8(g.Kind),
		})
	}
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal program: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a Program from a CBOR image.
func Unmarshal(data []byte) (*Program, error) {
	var img programImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("bytecode: %w %d", ErrImageVersion, img.Version)
	}
	id, err := uuid.FromBytes(img.ID)
	if err != nil {
		return nil, fmt.Errorf("bytecode: invalid build id: %w", err)
	}
	functions := make([]*Function, len(img.Functions))
	for i, fi := range img.Functions {
		if len(fi.Lines) != len(fi.Columns) {
			return nil, fmt.Errorf("bytecode: function %s: mismatched source map", fi.Name)
		}
		if len(fi.ArgKinds) != len(fi.ArgOffsets) {
			return nil, fmt.Errorf("bytecode: function %s: mismatched argument layout", fi.Name)
		}
		instructions := make([]op.Instruction, len(fi.Code))
		for j, v := range fi.Code {
			instructions[j] = op.Decode(v)
		}
		var locations []SourceLocation
		for j := range fi.Lines {
			locations = append(locations, SourceLocation{Line: fi.Lines[j], Column: fi.Columns[j]})
		}
		kinds := make([]types.Kind, len(fi.ArgKinds))
		for j, k := range fi.ArgKinds {
			kinds[j] = types.Kind(k)
		}
		functions[i] = NewFunction(FunctionParams{
			Name:       fi.Name,
			Module:     fi.Module,
			Index:      i,
			Address:    fi.Address,
			FrameSize:  fi.FrameSize,
			ArgsSize:   fi.ArgsSize,
			ArgKinds:   kinds,
			ArgOffsets: fi.ArgOffsets,
			ReturnKind: types.Kind(fi.ReturnKind),
			Code:       NewCode(instructions, locations),
		})
	}
	globals := make([]Global, len(img.Globals))
	for i, g := range img.Globals {
		globals[i] = Global{Name: g.Name, Module: g.Module, Address: g.Address, Size: g.Size, Kind: types.Kind(g.Kind)}
	}
	return NewProgram(ProgramParams{
		ID:         id,
		Functions:  functions,
		Constants:  img.Constants,
		StaticSize: img.StaticSize,
		InitIndex:  img.InitIndex,
		Globals:    globals,
	}), nil
}
