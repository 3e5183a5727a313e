package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// version is reported to telemetry.
	version = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, ver, commit, buildDate string) error {
	version = ver
	rootCmd := newRootCommand(ver, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "intcode",
		Short: "Intcode virtual machine and amplifier tooling",
		Long: `intcode runs Intcode programs on a suspend-capable virtual machine.

Features:
  - Diagnostic runs with queued input
  - Amplifier chains in series and feedback mode
  - Phase searches over every permutation in parallel
  - Noun/verb sweeps for a target output
  - Starlark scripting against the engine
  - Run history in SQLite`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (.yaml, .yml or .cue)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newAmplifyCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newScriptCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
