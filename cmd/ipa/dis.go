package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/dis"
)

type functionListing struct {
	Name         string               `json:"name"`
	Signature    string               `json:"signature"`
	Layout       string               `json:"layout"`
	Instructions []instructionListing `json:"instructions"`
}

type instructionListing struct {
	Offset     int    `json:"offset"`
	Opcode     string `json:"opcode"`
	Operands   string `json:"operands,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <image>",
		Short: "Disassemble a program image",
		Args:  cobra.ExactArgs(1),
		RunE:  disHandler,
	}
	cmd.Flags().String("func", "", "Function to disassemble")
	cmd.Flags().Bool("json", false, "Print the listing as JSON")
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	program, err := readProgram(args[0])
	if err != nil {
		return err
	}
	funcName, _ := cmd.Flags().GetString("func")
	asJSON, _ := cmd.Flags().GetBool("json")

	functions := make([]*bytecode.Function, 0, program.FunctionCount())
	if funcName != "" {
		fn, ok := program.Lookup(funcName)
		if !ok {
			return fmt.Errorf("function %q not found", funcName)
		}
		functions = append(functions, fn)
	} else {
		for i := 0; i < program.FunctionCount(); i++ {
			functions = append(functions, program.FunctionAt(i))
		}
	}

	if !asJSON && funcName == "" {
		return dis.PrintProgram(program, cmd.OutOrStdout())
	}

	listings := make([]functionListing, 0, len(functions))
	for _, fn := range functions {
		instructions, err := dis.DisassembleFunction(program, fn)
		if err != nil {
			return fmt.Errorf("%s: %w", fn.QualifiedName(), err)
		}
		if !asJSON {
			dis.Print(instructions, cmd.OutOrStdout())
			return nil
		}
		listing := functionListing{
			Name:      fn.QualifiedName(),
			Signature: fn.String(),
			Layout:    fn.Layout(),
		}
		for _, ins := range instructions {
			listing.Instructions = append(listing.Instructions, instructionListing{
				Offset:     ins.Offset,
				Opcode:     ins.Name,
				Operands:   ins.Text,
				Annotation: ins.Annotation,
			})
		}
		listings = append(listings, listing)
	}
	output, err := getOutputJSON(listings)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
