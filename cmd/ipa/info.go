package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ipa-lang/ipa/bytecode"
)

type imageInfo struct {
	ID        string         `json:"id"`
	Stats     bytecode.Stats `json:"stats"`
	Functions []string       `json:"functions"`
	Globals   []globalInfo   `json:"globals,omitempty"`
}

type globalInfo struct {
	Name    string `json:"name"`
	Address uint32 `json:"address"`
	Size    uint32 `json:"size"`
	Type    string `json:"type"`
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Summarize a program image",
		Args:  cobra.ExactArgs(1),
		RunE:  infoHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (json, text)")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func describe(program *bytecode.Program) imageInfo {
	info := imageInfo{
		ID:    program.ID().String(),
		Stats: program.Stats(),
	}
	for i := 0; i < program.FunctionCount(); i++ {
		info.Functions = append(info.Functions, program.FunctionAt(i).String())
	}
	for i := 0; i < program.GlobalCount(); i++ {
		g := program.GlobalAt(i)
		info.Globals = append(info.Globals, globalInfo{
			Name:    g.Module + "." + g.Name,
			Address: g.Address,
			Size:    g.Size,
			Type:    g.Kind.String(),
		})
	}
	return info
}

func infoHandler(cmd *cobra.Command, args []string) error {
	program, err := readProgram(args[0])
	if err != nil {
		return err
	}
	info := describe(program)
	format, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(format) {
	case "json":
		output, err := getOutputJSON(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	case "text", "":
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	bold := color.New(color.Bold).SprintFunc()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", bold("build"), info.ID)
	fmt.Fprintf(out, "%s %d functions, %d instructions, %d constant bytes, %d static bytes, max frame %d\n",
		bold("stats"), info.Stats.FunctionCount, info.Stats.InstructionCount,
		info.Stats.ConstantBytes, info.Stats.StaticBytes, info.Stats.MaxFrameSize)
	for _, fn := range info.Functions {
		fmt.Fprintf(out, "  %s\n", fn)
	}
	for _, g := range info.Globals {
		fmt.Fprintf(out, "  var %s %s @%d (%d bytes)\n", g.Name, g.Type, g.Address, g.Size)
	}
	return nil
}
