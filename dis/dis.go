// Package dis supports analysis of IPA bytecode by disassembling it.
// This works with the opcodes defined in the `op` package.
package dis

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset int
	Name   string
	Opcode op.Code
	// Operands holds a, b and c, or a and bx for the ABx and AsBx formats.
	Operands []uint32
	// Text is the operand listing, such as "8 12 -> 16".
	Text string
	// Annotation holds extra information: jump targets and, when the
	// listing was made for a program, constant values.
	Annotation string
}

// String returns the instruction as "mnemonic operands".
func (i Instruction) String() string {
	if i.Text == "" {
		return i.Name
	}
	return i.Name + " " + i.Text
}

// Disassemble returns a parsed representation of the given bytecode.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	count := code.InstructionCount()
	instructions := make([]Instruction, 0, count)
	for ip := 0; ip < count; ip++ {
		ins := code.InstructionAt(ip)
		info := op.GetInfo(ins.Code)
		if info.Name == "" {
			return nil, fmt.Errorf("invalid opcode %d at offset %d", ins.Code, ip)
		}
		d := Instruction{Offset: ip, Name: info.Name, Opcode: ins.Code}
		switch info.Format {
		case op.FormatABx, op.FormatAsBx:
			d.Operands = []uint32{uint32(ins.A), ins.Bx()}
		default:
			d.Operands = []uint32{uint32(ins.A), uint32(ins.B), uint32(ins.C)}
		}
		d.Text, d.Annotation = operands(ip, ins)
		instructions = append(instructions, d)
	}
	return instructions, nil
}

// operands formats the operands of ins as "source -> destination".
func operands(ip int, ins op.Instruction) (string, string) {
	a, b, c := ins.A, ins.B, ins.C
	switch ins.Code {
	case op.Empty, op.ReturnVoid:
		return "", ""
	case op.If:
		return fmt.Sprint(a), ""
	case op.Jump:
		return fmt.Sprintf("%+d", ins.SBx()), fmt.Sprintf("to %d", ip+1+int(ins.SBx()))
	case op.CallLocal:
		return fmt.Sprintf("%d -> %d", b, a), ""
	case op.CallStatic:
		return fmt.Sprintf("@%d -> %d", ins.Bx(), a), ""
	case op.Move:
		return fmt.Sprintf("%d -> %d", a, b), fmt.Sprintf("%d bytes", c)
	}
	if _, off, ok := op.TypeOp(ins.Code); ok {
		switch {
		case off < op.Add:
			return fmt.Sprintf("%d -> %d", a, b), ""
		case off == op.Inc || off == op.Dec:
			if c != 0 {
				return fmt.Sprintf("%d -> %d", a, b), "postfix"
			}
			return fmt.Sprintf("%d -> %d", a, b), ""
		default:
			return fmt.Sprintf("%d %d -> %d", a, b, c), ""
		}
	}
	if _, off, ok := op.SizeOp(ins.Code); ok {
		switch off {
		case op.Not, op.Bnot, op.SetLocal:
			return fmt.Sprintf("%d -> %d", a, b), ""
		case op.LoadConstant:
			return fmt.Sprintf("#%d -> %d", ins.Bx(), a), ""
		case op.LoadStatic:
			return fmt.Sprintf("@%d -> %d", ins.Bx(), a), ""
		case op.SetStatic:
			return fmt.Sprintf("%d -> @%d", a, ins.Bx()), ""
		case op.Return:
			return fmt.Sprint(a), ""
		case op.Arg:
			return fmt.Sprintf("%d -> out+%d", a, b), ""
		case op.LoadIndex:
			return fmt.Sprintf("%d[%d] -> %d", b, c, a), ""
		case op.SetIndex:
			return fmt.Sprintf("%d -> %d[%d]", a, b, c), ""
		default:
			return fmt.Sprintf("%d %d -> %d", a, b, c), ""
		}
	}
	return fmt.Sprintf("%d %d %d", a, b, c), ""
}

// DisassembleFunction disassembles fn and annotates constant loads with the
// values they read from the program's constant pool.
func DisassembleFunction(p *bytecode.Program, fn *bytecode.Function) ([]Instruction, error) {
	instructions, err := Disassemble(fn.Code())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.QualifiedName(), err)
	}
	pool := p.Constants()
	for i, ins := range instructions {
		size, off, ok := op.SizeOp(ins.Opcode)
		if !ok || off != op.LoadConstant {
			continue
		}
		addr := ins.Operands[1]
		if uint64(addr)+uint64(size) > uint64(len(pool)) {
			return nil, fmt.Errorf("%s: constant #%d out of range at offset %d",
				fn.QualifiedName(), addr, ins.Offset)
		}
		var raw [8]byte
		copy(raw[:], pool[addr:addr+size])
		instructions[i].Annotation = fmt.Sprintf("=%#x", binary.LittleEndian.Uint64(raw[:]))
	}
	return instructions, nil
}

var (
	offsetColor     = color.New(color.Faint)
	mnemonicColor   = color.New(color.Bold)
	annotationColor = color.New(color.FgYellow)
	headerColor     = color.New(color.FgCyan, color.Bold)
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	nameWidth, textWidth := 0, 0
	for _, ins := range instructions {
		nameWidth = max(nameWidth, len(ins.Name))
		textWidth = max(textWidth, len(ins.Text))
	}
	for _, ins := range instructions {
		var line strings.Builder
		line.WriteString(offsetColor.Sprintf("%5d", ins.Offset))
		line.WriteString("  ")
		line.WriteString(mnemonicColor.Sprint(pad(ins.Name, nameWidth)))
		if ins.Text != "" || ins.Annotation != "" {
			line.WriteString("  ")
			line.WriteString(pad(ins.Text, textWidth))
		}
		if ins.Annotation != "" {
			line.WriteString("  ")
			line.WriteString(annotationColor.Sprint(ins.Annotation))
		}
		fmt.Fprintln(writer, strings.TrimRight(line.String(), " "))
	}
}

// PrintProgram writes the listing of every function in p, each preceded by
// its header and frame layout.
func PrintProgram(p *bytecode.Program, writer io.Writer) error {
	for i := 0; i < p.FunctionCount(); i++ {
		fn := p.FunctionAt(i)
		instructions, err := DisassembleFunction(p, fn)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(writer)
		}
		fmt.Fprintf(writer, "%s  %s\n", headerColor.Sprint(fn.String()), offsetColor.Sprint(fn.Layout()))
		Print(instructions, writer)
	}
	return nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
