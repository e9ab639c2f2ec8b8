package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - reactive policy decision engine",
	Long: `Ganymede is a reactive policy decision engine.

Policies read time-varying inputs (rollout files, clocks, maintenance
windows) through a memoizing evaluation context. When a policy cannot
decide yet, the engine suspends the decision until one of the consulted
inputs could have changed, then re-evaluates - no busy-polling.

Decisions are logged, counted, and optionally persisted to SQLite.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
