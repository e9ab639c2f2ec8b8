// Package logging configures structured logging for the engine.
//
// It wraps log/slog: New builds the process logger from configuration
// (level, format, source annotation) and installs it as the slog default;
// Component derives per-subsystem loggers carrying a "component" attribute,
// which is how every package in this repository tags its output.
package logging
