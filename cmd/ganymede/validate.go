package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/policy/sources"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without starting the engine.

Checks YAML syntax, field values, and the maintenance window cron
expression.

Examples:
  # Validate the default config
  ganymede validate

  # Validate a specific file
  ganymede validate --config /etc/ganymede/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	// The cron expression only fails at variable construction, so probe it
	// here too.
	if _, err := sources.NewCronWindow("maintenance_window",
		cfg.Engine.WindowSchedule, cfg.Engine.WindowDuration,
		cfg.Engine.WindowPollInterval); err != nil {
		return fmt.Errorf("engine.window_schedule: %w", err)
	}

	fmt.Println("✓ Configuration valid")
	return nil
}
