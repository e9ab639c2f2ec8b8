package engine

import (
	"mercator-hq/ganymede/pkg/policy/evalcontext"
)

// Status is the outcome of a single decision pass.
type Status int

const (
	// StatusFailed means the policy reached a negative decision.
	StatusFailed Status = iota

	// StatusSucceeded means the policy reached a positive decision.
	StatusSucceeded

	// StatusAskAgainLater means the policy cannot decide yet; the engine
	// should suspend until one of the consulted inputs could have changed.
	StatusAskAgainLater
)

// String returns the status name used in logs, records, and metrics.
func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusSucceeded:
		return "succeeded"
	case StatusAskAgainLater:
		return "ask_again_later"
	default:
		return "unknown"
	}
}

// Verdict is what a policy returns from one decision pass.
type Verdict struct {
	// Status is the pass outcome.
	Status Status

	// Reason is a human-readable explanation of the outcome.
	Reason string

	// Detail carries policy-specific structured data for the decision
	// record.
	Detail map[string]any
}

// Policy is a decision function over time-varying inputs. Evaluate must
// read every input it depends on through the supplied context, so the
// engine knows what to watch when the verdict is StatusAskAgainLater.
// Evaluate runs on the event loop and must not block.
type Policy interface {
	// Name identifies the policy in logs, metrics, and records.
	Name() string

	// Evaluate runs one decision pass.
	Evaluate(ec *evalcontext.Context) Verdict
}
