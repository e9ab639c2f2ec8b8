// Package config defines the engine's YAML configuration: loading,
// defaults, validation, and environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the ganymede daemon.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Engine  EngineConfig  `yaml:"engine"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`

	// AddSource includes file:line in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics HTTP listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics listener address (e.g. ":9090").
	ListenAddress string `yaml:"listen_address"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// StorageConfig controls decision record persistence.
type StorageConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `yaml:"path"`

	// WALMode enables Write-Ahead Logging.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the SQLite busy timeout.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays prunes records older than this many days on startup.
	// Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// EngineConfig controls the decision engine's inputs.
type EngineConfig struct {
	// RolloutFile is the operator-editable YAML document gating
	// maintenance decisions.
	RolloutFile string `yaml:"rollout_file"`

	// WatchDebounce collapses bursts of file edits into one reload.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// WindowSchedule is the standard cron expression opening the
	// maintenance window.
	WindowSchedule string `yaml:"window_schedule"`

	// WindowDuration is how long each window activation stays open.
	WindowDuration time.Duration `yaml:"window_duration"`

	// WindowPollInterval bounds how often the window is re-checked.
	WindowPollInterval time.Duration `yaml:"window_poll_interval"`

	// Continuous keeps issuing decisions as inputs change instead of
	// stopping at the first terminal decision.
	Continuous bool `yaml:"continuous"`
}

// ApplyDefaults fills unset fields with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = ":9090"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "ganymede"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "engine"
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = 5 * time.Second
	}
	if !cfg.Storage.WALMode && cfg.Storage.Path != "" {
		cfg.Storage.WALMode = true
	}
	if cfg.Engine.RolloutFile == "" {
		cfg.Engine.RolloutFile = "rollout.yaml"
	}
	if cfg.Engine.WatchDebounce == 0 {
		cfg.Engine.WatchDebounce = 100 * time.Millisecond
	}
	if cfg.Engine.WindowSchedule == "" {
		cfg.Engine.WindowSchedule = "0 3 * * *"
	}
	if cfg.Engine.WindowDuration == 0 {
		cfg.Engine.WindowDuration = time.Hour
	}
	if cfg.Engine.WindowPollInterval == 0 {
		cfg.Engine.WindowPollInterval = 30 * time.Second
	}
}

// Validate checks the configuration for contradictions.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address: required when metrics are enabled")
	}
	if cfg.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days: must not be negative, got %d", cfg.Storage.RetentionDays)
	}
	if cfg.Engine.WindowDuration <= 0 {
		return fmt.Errorf("engine.window_duration: must be positive, got %v", cfg.Engine.WindowDuration)
	}
	if cfg.Engine.WindowPollInterval <= 0 {
		return fmt.Errorf("engine.window_poll_interval: must be positive, got %v", cfg.Engine.WindowPollInterval)
	}
	return nil
}
