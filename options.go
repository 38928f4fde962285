package ipa

import (
	"github.com/rs/zerolog"

	"github.com/ipa-lang/ipa/config"
	"github.com/ipa-lang/ipa/vm"
)

// Option configures a Project.
type Option func(*options)

type options struct {
	cfg      *config.Config
	log      zerolog.Logger
	observer vm.Observer
}

func collectOptions(opts ...Option) *options {
	o := &options{cfg: config.Default(), log: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithConfig sets the compiler and runtime settings. The default is
// config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithLogger sets the logger passed to every phase and to the runtime.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithObserver sets an observer for runtimes created by the project.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func (o *options) vmOpts() []vm.Option {
	opts := []vm.Option{
		vm.WithStackSize(o.cfg.Runtime.StackSize),
		vm.WithArgStageSize(o.cfg.Runtime.ArgStageSize),
		vm.WithContextCheckInterval(o.cfg.Runtime.ContextCheckInterval),
		vm.WithLogger(o.log),
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}
