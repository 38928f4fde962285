package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/types"
	"github.com/ipa-lang/ipa/vm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <image> [args...]",
		Short: "Call a function of a program image",
		Long: "Call a function of a program image. Each argument is parsed as " +
			"the type of the matching parameter.",
		Args: cobra.MinimumNArgs(1),
		RunE: runHandler,
	}
	cmd.Flags().String("func", "main", "Function to call")
	cmd.Flags().StringP("output", "o", "", "Output format (json, text)")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func runHandler(cmd *cobra.Command, args []string) error {
	program, err := readProgram(args[0])
	if err != nil {
		return err
	}
	funcName, _ := cmd.Flags().GetString("func")
	format, _ := cmd.Flags().GetString("output")

	fn, ok := program.Lookup(funcName)
	if !ok {
		return fmt.Errorf("function %q not found", funcName)
	}
	callArgs, err := parseArgs(fn, args[1:])
	if err != nil {
		return err
	}

	rt, err := vm.New(program,
		vm.WithStackSize(settings.Runtime.StackSize),
		vm.WithArgStageSize(settings.Runtime.ArgStageSize),
		vm.WithContextCheckInterval(settings.Runtime.ContextCheckInterval),
		vm.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	result, err := rt.Invoke(ctx, fn.QualifiedName(), callArgs...)
	if err != nil {
		return err
	}
	output, err := getOutput(result, format)
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}

// parseArgs converts command line arguments to the Go values expected for
// the parameters of fn.
func parseArgs(fn *bytecode.Function, args []string) ([]any, error) {
	if len(args) != fn.ArgCount() {
		return nil, fmt.Errorf("%s takes %d arguments, %d given", fn.QualifiedName(), fn.ArgCount(), len(args))
	}
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := parseArg(arg, fn.ArgKind(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseArg(s string, k types.Kind) (any, error) {
	switch k {
	case types.KindBool:
		return strconv.ParseBool(s)
	case types.KindS8:
		v, err := strconv.ParseInt(s, 0, 8)
		return int8(v), err
	case types.KindU8:
		v, err := strconv.ParseUint(s, 0, 8)
		return uint8(v), err
	case types.KindS16:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case types.KindU16:
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case types.KindS32:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case types.KindU32:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case types.KindS64:
		return strconv.ParseInt(s, 0, 64)
	case types.KindU64:
		return strconv.ParseUint(s, 0, 64)
	case types.KindF32:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case types.KindF64:
		return strconv.ParseFloat(s, 64)
	}
	return nil, fmt.Errorf("unsupported parameter type %s", k)
}
