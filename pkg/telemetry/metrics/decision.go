package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks metrics related to policy decision passes.
//
// Metrics:
//   - ganymede_engine_passes_total: decision passes by policy and status
//   - ganymede_engine_pass_duration_seconds: decision pass duration
//   - ganymede_engine_deferrals_total: passes that suspended on their inputs
//   - ganymede_engine_wakeups_total: wait resolutions by trigger
//   - ganymede_engine_waiting_contexts: contexts currently waiting
type DecisionMetrics struct {
	passesTotal     *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	deferralsTotal  *prometheus.CounterVec
	wakeupsTotal    *prometheus.CounterVec
	waitingContexts prometheus.Gauge
}

// NewDecisionMetrics creates and registers decision metrics with the
// provided registry.
func NewDecisionMetrics(namespace, subsystem string, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "passes_total",
				Help:      "Total number of policy decision passes",
			},
			[]string{"policy", "status"},
		),

		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pass_duration_seconds",
				Help:      "Duration of a single decision pass in seconds",
				// Passes read in-memory variables and should be fast.
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"policy"},
		),

		deferralsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "deferrals_total",
				Help:      "Total number of passes suspended until inputs change",
			},
			[]string{"policy"},
		),

		wakeupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "wakeups_total",
				Help:      "Total number of wait resolutions by trigger",
			},
			[]string{"policy", "trigger"},
		),

		waitingContexts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "waiting_contexts",
				Help:      "Number of evaluation contexts currently waiting",
			},
		),
	}

	registry.MustRegister(
		dm.passesTotal,
		dm.passDuration,
		dm.deferralsTotal,
		dm.wakeupsTotal,
		dm.waitingContexts,
	)

	return dm
}

// RecordPass records a completed decision pass.
func (dm *DecisionMetrics) RecordPass(policy, status string, duration time.Duration) {
	dm.passesTotal.WithLabelValues(policy, status).Inc()
	dm.passDuration.WithLabelValues(policy).Observe(duration.Seconds())
}

// RecordDeferral records a pass that suspended until its inputs change.
func (dm *DecisionMetrics) RecordDeferral(policy string) {
	dm.deferralsTotal.WithLabelValues(policy).Inc()
	dm.waitingContexts.Inc()
}

// RecordWakeup records a wait resolution.
func (dm *DecisionMetrics) RecordWakeup(policy, trigger string) {
	dm.wakeupsTotal.WithLabelValues(policy, trigger).Inc()
	dm.waitingContexts.Dec()
}
