package vm

import (
	"errors"
	"fmt"

	"github.com/ipa-lang/ipa/bytecode"
)

// ErrRunning is returned when a call is started while another call is
// executing on the same Runtime.
var ErrRunning = errors.New("runtime is already running")

// ErrHalted is the cause of the RuntimeError returned when an observer stops
// execution.
var ErrHalted = errors.New("halted by observer")

// ContractError reports a host call that does not match the signature of
// the called function. No instruction has executed when it is returned.
type ContractError struct {
	Function string
	Message  string
}

func (e *ContractError) Error() string {
	if e.Function == "" {
		return "contract error: " + e.Message
	}
	return fmt.Sprintf("contract error: %s: %s", e.Function, e.Message)
}

func contractErrorf(fn *bytecode.Function, format string, args ...any) *ContractError {
	e := &ContractError{Message: fmt.Sprintf(format, args...)}
	if fn != nil {
		e.Function = fn.QualifiedName()
	}
	return e
}

// RuntimeError reports a fault raised while executing bytecode.
type RuntimeError struct {
	// Function is the qualified name of the function that faulted.
	Function string
	// IP is the offset of the faulting instruction.
	IP       int
	Location bytecode.SourceLocation
	Message  string
	// Cause is the recovered Go runtime error, if any.
	Cause error
	// Stack lists the active calls, innermost first.
	Stack []StackFrame
}

// StackFrame is one entry of a RuntimeError's call stack.
type StackFrame struct {
	Function string
	IP       int
	Location bytecode.SourceLocation
}

func (e *RuntimeError) Error() string {
	loc := ""
	if !e.Location.IsZero() {
		loc = " (" + e.Location.String() + ")"
	}
	return fmt.Sprintf("runtime error: %s at %s+%d%s", e.Message, e.Function, e.IP, loc)
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}
