// Tally is a budget tracking and cost-alert engine for film productions.
//
// It tracks spending ceilings for crew members, departments and whole
// productions, classifies every charge against warning, critical and
// exceeded thresholds, and records a deduplicated alert trail without ever
// blocking the spend itself.
//
// Usage:
//
//	# Start the API server with default configuration
//	tally run
//
//	# Start with a custom configuration file
//	tally run --config /etc/tally/tally.yaml
//
//	# Validate configuration without starting
//	tally validate --config tally.yaml
//
//	# Show version information
//	tally version
package main

func main() {
	Execute()
}
