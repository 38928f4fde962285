package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ipa",
		Short:         "Inspect and run compiled IPA program images",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return processGlobalFlags()
		},
	}
	cmd.SetVersionTemplate("ipa {{.Version}} (commit " + commit + ", built " + date + ")\n")

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to an ipa.toml file")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.Bool("no-color", false, "Disable colored output")
	_ = viper.BindPFlags(flags)

	cmd.AddCommand(newDisCmd(), newRunCmd(), newInfoCmd())
	return cmd
}

func init() {
	viper.SetEnvPrefix("ipa")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}
