// Package config handles ipa.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// FileName is the name of the configuration file looked up by FindAndLoad.
const FileName = "ipa.toml"

// Config represents an ipa.toml configuration.
type Config struct {
	Compiler Compiler `toml:"compiler"`
	Runtime  Runtime  `toml:"runtime"`
	Log      Log      `toml:"log"`

	// Path is the file the configuration was loaded from, if any.
	Path string `toml:"-"`
}

// Compiler configures the type inferer and the bytecode compiler.
type Compiler struct {
	// MaxDepth bounds the nesting of type inference across declarations.
	MaxDepth   int    `toml:"max_depth"`
	FrameAlign uint32 `toml:"frame_align"`
}

// Runtime configures the virtual machine.
type Runtime struct {
	StackSize            int `toml:"stack_size"`
	ArgStageSize         int `toml:"arg_stage_size"`
	ContextCheckInterval int `toml:"context_check_interval"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Compiler: Compiler{
			MaxDepth:   512,
			FrameAlign: 8,
		},
		Runtime: Runtime{
			StackSize:            1024 * 1024,
			ArgStageSize:         4 * 1024,
			ContextCheckInterval: 1000,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Parse decodes a configuration. Missing fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir to find an ipa.toml file and loads
// it. The default configuration is returned when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks the configured values.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Compiler.MaxDepth <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("compiler.max_depth must be positive, got %d", c.Compiler.MaxDepth))
	}
	if a := c.Compiler.FrameAlign; a < 8 || a&(a-1) != 0 {
		errs = multierror.Append(errs, fmt.Errorf("compiler.frame_align must be a power of two of at least 8, got %d", a))
	}
	if c.Runtime.StackSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("runtime.stack_size must be positive, got %d", c.Runtime.StackSize))
	}
	if c.Runtime.ArgStageSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("runtime.arg_stage_size must be positive, got %d", c.Runtime.ArgStageSize))
	}
	if c.Runtime.ContextCheckInterval < 0 {
		errs = multierror.Append(errs, fmt.Errorf("runtime.context_check_interval must not be negative, got %d",
			c.Runtime.ContextCheckInterval))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// LogLevel returns the configured zerolog level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
