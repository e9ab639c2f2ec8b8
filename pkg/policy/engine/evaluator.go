package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/decision"
	"mercator-hq/ganymede/pkg/loop"
	"mercator-hq/ganymede/pkg/policy/evalcontext"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Options configures an Evaluator. All fields are optional.
type Options struct {
	// Store receives a record for every terminal decision.
	Store decision.Store

	// Metrics receives pass, deferral, and wakeup counts.
	Metrics *metrics.DecisionMetrics

	// OnDecision is invoked on the event loop for every terminal decision.
	OnDecision func(*decision.Record)

	// Continuous keeps the evaluator running after a terminal decision:
	// it re-arms the wait so a new pass runs when the consulted inputs
	// change again. Without it the evaluator finishes on the first
	// terminal decision.
	Continuous bool
}

// Evaluator drives decision passes for one policy. Each pass runs on the
// event loop against a fresh evaluation context; superseded contexts are
// closed before the next pass starts, so at most one wait is ever
// outstanding.
type Evaluator struct {
	lp     *loop.Loop
	policy Policy
	opts   Options
	logger *slog.Logger

	ec       *evalcontext.Context
	stopped  bool
	finished bool
}

// New creates an evaluator for the given policy.
func New(lp *loop.Loop, policy Policy, opts Options) *Evaluator {
	return &Evaluator{
		lp:     lp,
		policy: policy,
		opts:   opts,
		logger: logging.Component("policy.engine").With("policy", policy.Name()),
	}
}

// Start schedules the first decision pass onto the event loop.
func (e *Evaluator) Start() {
	e.lp.Post(e.evaluate)
}

// Stop halts the evaluator and tears down any outstanding wait. Must be
// called on the event loop.
func (e *Evaluator) Stop() {
	e.stopped = true
	if e.ec != nil {
		e.ec.Close()
		e.ec = nil
	}
}

// Finished reports whether a terminal decision ended the evaluator. Only
// meaningful when Continuous is off.
func (e *Evaluator) Finished() bool { return e.finished }

// evaluate runs one decision pass. It is also the wait-resolution callback,
// so every re-evaluation enters here on a fresh loop turn.
func (e *Evaluator) evaluate() {
	if e.stopped {
		return
	}

	wakeTrigger := evalcontext.TriggerNone
	if e.ec != nil {
		wakeTrigger = e.ec.Trigger()
		if wakeTrigger != evalcontext.TriggerNone && e.opts.Metrics != nil {
			e.opts.Metrics.RecordWakeup(e.policy.Name(), wakeTrigger.String())
		}
		e.ec.Close()
	}
	e.ec = evalcontext.New(e.lp)

	start := time.Now()
	verdict := e.policy.Evaluate(e.ec)
	elapsed := time.Since(start)

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordPass(e.policy.Name(), verdict.Status.String(), elapsed)
	}

	pinned := false
	if verdict.Status == StatusAskAgainLater {
		if e.ec.RunOnValueChangeOrTimeout(e.evaluate) {
			if e.opts.Metrics != nil {
				e.opts.Metrics.RecordDeferral(e.policy.Name())
			}
			e.logger.Debug("decision deferred", "reason", verdict.Reason)
			return
		}
		// Nothing the policy consulted can ever change, so deferring would
		// wait forever. Record the stalemate as terminal.
		pinned = true
		e.logger.Error("policy asked to wait with nothing to wait on",
			"reason", verdict.Reason)
	}

	e.conclude(verdict, wakeTrigger, elapsed, pinned)
}

// conclude records a terminal decision and either finishes or re-arms.
func (e *Evaluator) conclude(verdict Verdict, wakeTrigger evalcontext.Trigger, elapsed time.Duration, pinned bool) {
	record := &decision.Record{
		ID:          uuid.New().String(),
		Policy:      e.policy.Name(),
		Status:      verdict.Status.String(),
		Trigger:     wakeTrigger.String(),
		Reason:      verdict.Reason,
		Detail:      verdict.Detail,
		EvaluatedAt: time.Now(),
		Duration:    elapsed,
	}
	if pinned {
		if record.Detail == nil {
			record.Detail = make(map[string]any)
		}
		record.Detail["pinned"] = true
	}

	e.logger.Info("decision",
		"id", record.ID,
		"status", record.Status,
		"trigger", record.Trigger,
		"reason", record.Reason,
		"duration", elapsed,
	)

	if e.opts.Store != nil {
		if err := e.opts.Store.Save(context.Background(), record); err != nil {
			e.logger.Error("failed to save decision record", "error", err)
		}
	}
	if e.opts.OnDecision != nil {
		e.opts.OnDecision(record)
	}

	if e.opts.Continuous && !pinned {
		if e.ec.RunOnValueChangeOrTimeout(e.evaluate) {
			if e.opts.Metrics != nil {
				e.opts.Metrics.RecordDeferral(e.policy.Name())
			}
			return
		}
	}
	e.finished = true
	e.ec.Close()
}
