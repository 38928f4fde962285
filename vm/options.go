package vm

import "github.com/rs/zerolog"

// Option is a configuration function for a Runtime.
type Option func(*Runtime)

// WithStackSize sets the size of the stack in bytes. The default is
// DefaultStackSize.
func WithStackSize(size int) Option {
	return func(r *Runtime) {
		r.stackSize = size
	}
}

// WithArgStageSize sets the size of the buffer that stages outgoing call
// arguments. Every function's argument area must fit in it. The default is
// DefaultArgStageSize.
func WithArgStageSize(size int) Option {
	return func(r *Runtime) {
		r.argStageSize = size
	}
}

// WithContextCheckInterval sets how often the Runtime checks ctx.Done()
// during execution. The interval is specified in number of instructions. A
// value of 0 disables checking. The default is DefaultContextCheckInterval.
//
// Lower values provide more responsive cancellation but may slightly impact
// performance due to more frequent checks.
func WithContextCheckInterval(interval int) Option {
	return func(r *Runtime) {
		r.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for execution events.
// The observer receives callbacks for instruction steps, function calls,
// and function returns. Returning false from any observer method halts
// execution immediately.
func WithObserver(observer Observer) Option {
	return func(r *Runtime) {
		r.observer = observer
	}
}

// WithLogger sets the logger. Calls are logged at trace level.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}
