package vm

import (
	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/op"
)

// StepMode selects which instructions are reported to Observer.OnStep.
type StepMode uint8

const (
	StepAll StepMode = iota
	StepNone
	// StepSampled reports one instruction in every SampleInterval.
	StepSampled
	// StepOnLocation reports an instruction whenever its source location
	// differs from that of the previously executed instruction.
	StepOnLocation
)

// ObserverConfig is read from the observer at the start of every host call.
type ObserverConfig struct {
	StepMode       StepMode
	SampleInterval int
	ObserveCalls   bool
	ObserveReturns bool
}

// NewObserverConfig returns a config for mode with call and return events
// enabled and a sample interval of 1000.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// Observer receives execution events synchronously from the interpreter
// loop. Returning false from any callback halts the call with ErrHalted.
type Observer interface {
	Config() ObserverConfig
	OnStep(event StepEvent) bool
	OnCall(event CallEvent) bool
	OnReturn(event ReturnEvent) bool
}

// StepEvent describes an instruction that is about to execute.
type StepEvent struct {
	Function   string
	IP         int
	Opcode     op.Code
	OpcodeName string
	Location   bytecode.SourceLocation
	FP         uint32
	FrameDepth int
}

// CallEvent describes a new activation. Location is the call site, or the
// zero location for a call made by the host.
type CallEvent struct {
	Function   string
	ArgCount   int
	Location   bytecode.SourceLocation
	FrameDepth int
}

// ReturnEvent describes an activation that is returning. FrameDepth is the
// depth once the frame is popped.
type ReturnEvent struct {
	Function   string
	Location   bytecode.SourceLocation
	FrameDepth int
}

// NoOpObserver accepts every event. Embed it to implement only some of the
// callbacks.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig    { return NewObserverConfig(StepAll) }
func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

var _ Observer = NoOpObserver{}

// stepFilter decides which instructions of one host call are reported.
type stepFilter struct {
	mode     StepMode
	interval int
	count    int
	last     bytecode.SourceLocation
}

func newStepFilter(cfg ObserverConfig) stepFilter {
	interval := cfg.SampleInterval
	if interval <= 0 {
		interval = 1
	}
	return stepFilter{mode: cfg.StepMode, interval: interval}
}

func (s *stepFilter) enabled() bool {
	return s.mode != StepNone
}

// due reports whether the instruction at loc is reported.
func (s *stepFilter) due(loc bytecode.SourceLocation) bool {
	switch s.mode {
	case StepAll:
		return true
	case StepSampled:
		s.count++
		return s.count%s.interval == 0
	case StepOnLocation:
		changed := loc != s.last
		s.last = loc
		return changed
	}
	return false
}
