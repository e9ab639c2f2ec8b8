package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/decision"
	"mercator-hq/ganymede/pkg/decision/storage"
	"mercator-hq/ganymede/pkg/loop"
	"mercator-hq/ganymede/pkg/policy/engine"
	"mercator-hq/ganymede/pkg/policy/policies"
	"mercator-hq/ganymede/pkg/policy/sources"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the decision engine",
	Long: `Start the decision engine with the specified configuration.

The engine watches the rollout file and the maintenance window, evaluates
the maintenance policy whenever a consulted input could have changed, and
emits a decision record for every terminal verdict.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Validate config without starting the engine
  ganymede run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics endpoint.
	var dm *metrics.DecisionMetrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		dm = metrics.NewDecisionMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		srv := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("metrics listening", "address", cfg.Metrics.ListenAddress)
	}

	// Decision persistence.
	var store decision.Store
	if cfg.Storage.Path != "" {
		s, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:        cfg.Storage.Path,
			WALMode:     cfg.Storage.WALMode,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open decision store: %w", err)
		}
		defer s.Close()
		store = s

		if cfg.Storage.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Storage.RetentionDays)
			if _, err := s.PruneBefore(ctx, cutoff); err != nil {
				logger.Warn("failed to prune old decisions", "error", err)
			}
		}
	}

	lp := loop.New()

	// Engine inputs.
	rollout, err := sources.NewFile[policies.RolloutConfig](
		"rollout", cfg.Engine.RolloutFile, lp, cfg.Engine.WatchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch rollout file: %w", err)
	}
	defer rollout.Close()

	window, err := sources.NewCronWindow("maintenance_window",
		cfg.Engine.WindowSchedule, cfg.Engine.WindowDuration,
		cfg.Engine.WindowPollInterval)
	if err != nil {
		return fmt.Errorf("invalid maintenance window: %w", err)
	}

	logger.Info("engine starting",
		"rollout_file", cfg.Engine.RolloutFile,
		"window_schedule", cfg.Engine.WindowSchedule,
		"window_next_change", window.NextChange(),
		"continuous", cfg.Engine.Continuous,
	)

	policy := policies.NewMaintenance(rollout, window)
	ev := engine.New(lp, policy, engine.Options{
		Store:      store,
		Metrics:    dm,
		Continuous: cfg.Engine.Continuous,
		OnDecision: func(r *decision.Record) {
			if !cfg.Engine.Continuous {
				cancel()
			}
		},
	})
	ev.Start()

	lp.Run(ctx)

	ev.Stop()
	logger.Info("engine stopped")
	return nil
}
