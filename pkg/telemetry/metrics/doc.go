// Package metrics exposes Prometheus instrumentation for the decision
// engine: pass counts and latencies, deferral and wake-up counters, and a
// gauge of contexts currently waiting on their inputs.
package metrics
