// Package telemetry groups the engine's observability surfaces.
//
// Components:
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics for decision passes and waits
//
// Both are optional collaborators: the decision core runs without them,
// and the run command wires them in from configuration.
package telemetry
