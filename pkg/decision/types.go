package decision

import (
	"context"
	"time"
)

// Record captures one completed decision pass.
type Record struct {
	// ID is the unique identifier of the pass (UUID).
	ID string

	// Policy is the name of the policy that was evaluated.
	Policy string

	// Status is the pass outcome ("succeeded", "failed", "ask_again_later").
	Status string

	// Trigger is what woke this pass up ("none" for the first pass,
	// otherwise "change" or "timeout").
	Trigger string

	// Reason is the human-readable explanation attached by the policy.
	Reason string

	// Detail carries policy-specific structured data.
	Detail map[string]any

	// EvaluatedAt is when the pass ran.
	EvaluatedAt time.Time

	// Duration is how long the pass took.
	Duration time.Duration
}

// Store persists decision records.
type Store interface {
	// Save persists a record.
	Save(ctx context.Context, r *Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// PruneBefore deletes records evaluated before cutoff and reports how
	// many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the store.
	Close() error
}
