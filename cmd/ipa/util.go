package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ipa-lang/ipa/bytecode"
	"github.com/ipa-lang/ipa/config"
)

var (
	red = color.New(color.FgRed).SprintFunc()

	settings = config.Default()
	logger   = zerolog.Nop()
)

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() error {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	cfg, err := loadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	settings = cfg
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: color.NoColor || !isTerminal(os.Stderr),
	}).Level(level).With().Timestamp().Logger()
	logger.Debug().Str("config", cfg.Path).Str("level", level.String()).Msg("configured")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.FindAndLoad(wd)
}

func readProgram(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	program, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if result == nil {
			return "", nil
		}
		return fmt.Sprintf("%v", result), nil
	case "json":
		output, err := getOutputJSON(result)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		return fmt.Sprintf("%v", result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}
