// Ganymede is a reactive policy decision engine.
//
// It evaluates decision policies over time-varying inputs (files, clocks,
// maintenance windows) and suspends each decision until the earliest moment
// new information could change the outcome, instead of busy-polling.
//
// Usage:
//
//	# Start the engine with default configuration
//	ganymede run
//
//	# Start with a custom configuration file
//	ganymede run --config /etc/ganymede/config.yaml
//
//	# Validate a configuration file
//	ganymede validate
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
