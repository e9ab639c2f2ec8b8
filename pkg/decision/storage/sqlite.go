// Package storage provides the SQLite-backed decision record store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/decision"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/decisions.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStore implements decision.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the decision database and
// initializes its schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision database %q: %w", config.Path, err)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logging.Component("decision.storage"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id           TEXT PRIMARY KEY,
		policy       TEXT NOT NULL,
		status       TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		reason       TEXT,
		detail       TEXT,
		evaluated_at INTEGER NOT NULL,
		duration_us  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_evaluated_at
		ON decisions(evaluated_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_policy
		ON decisions(policy);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save implements decision.Store.
func (s *SQLiteStore) Save(ctx context.Context, r *decision.Record) error {
	detail, err := json.Marshal(r.Detail)
	if err != nil {
		return fmt.Errorf("failed to encode record detail: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decisions
			(id, policy, status, trigger_kind, reason, detail, evaluated_at, duration_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Policy, r.Status, r.Trigger, r.Reason, string(detail),
		r.EvaluatedAt.UnixMicro(), r.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision %q: %w", r.ID, err)
	}
	return nil
}

// Recent implements decision.Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*decision.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, policy, status, trigger_kind, reason, detail, evaluated_at, duration_us
		 FROM decisions ORDER BY evaluated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var records []*decision.Record
	for rows.Next() {
		var r decision.Record
		var detail string
		var evaluatedAt, durationUS int64
		if err := rows.Scan(&r.ID, &r.Policy, &r.Status, &r.Trigger,
			&r.Reason, &detail, &evaluatedAt, &durationUS); err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}
		if detail != "" && detail != "null" {
			if err := json.Unmarshal([]byte(detail), &r.Detail); err != nil {
				return nil, fmt.Errorf("failed to decode detail for %q: %w", r.ID, err)
			}
		}
		r.EvaluatedAt = time.UnixMicro(evaluatedAt)
		r.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, &r)
	}
	return records, rows.Err()
}

// PruneBefore implements decision.Store.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE evaluated_at < ?`, cutoff.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("failed to prune decisions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("pruned decision records", "deleted", deleted)
	}
	return deleted, nil
}

// Close implements decision.Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
