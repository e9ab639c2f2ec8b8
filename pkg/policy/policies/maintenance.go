// Package policies contains the built-in decision policies shipped with
// the engine.
package policies

import (
	"mercator-hq/ganymede/pkg/policy/engine"
	"mercator-hq/ganymede/pkg/policy/evalcontext"
	"mercator-hq/ganymede/pkg/policy/variable"
)

// RolloutConfig is the operator-editable rollout document consumed by the
// maintenance policy, typically served by a sources.File variable.
type RolloutConfig struct {
	// Enabled gates maintenance work entirely.
	Enabled bool `yaml:"enabled"`

	// Force allows maintenance regardless of the window.
	Force bool `yaml:"force"`
}

// Maintenance decides whether maintenance work may proceed right now: the
// rollout document must enable it, and unless forced, the maintenance
// window must be open.
type Maintenance struct {
	rollout variable.Typed[RolloutConfig]
	window  variable.Typed[bool]
}

// NewMaintenance builds the policy over the given inputs.
func NewMaintenance(rollout variable.Typed[RolloutConfig], window variable.Typed[bool]) *Maintenance {
	return &Maintenance{rollout: rollout, window: window}
}

// Name implements engine.Policy.
func (m *Maintenance) Name() string { return "maintenance" }

// Evaluate implements engine.Policy.
func (m *Maintenance) Evaluate(ec *evalcontext.Context) engine.Verdict {
	cfg, ok := evalcontext.Value(ec, m.rollout)
	if !ok {
		return engine.Verdict{
			Status: engine.StatusAskAgainLater,
			Reason: "rollout config not yet available",
		}
	}
	if !cfg.Enabled {
		return engine.Verdict{
			Status: engine.StatusFailed,
			Reason: "maintenance disabled by rollout config",
		}
	}
	if cfg.Force {
		return engine.Verdict{
			Status: engine.StatusSucceeded,
			Reason: "maintenance forced by rollout config",
			Detail: map[string]any{"forced": true},
		}
	}

	open, ok := evalcontext.Value(ec, m.window)
	if !ok {
		return engine.Verdict{
			Status: engine.StatusAskAgainLater,
			Reason: "maintenance window state unknown",
		}
	}
	if !open {
		return engine.Verdict{
			Status: engine.StatusAskAgainLater,
			Reason: "waiting for maintenance window",
		}
	}
	return engine.Verdict{
		Status: engine.StatusSucceeded,
		Reason: "inside maintenance window",
	}
}
