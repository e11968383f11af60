// Package telemetry groups the observability subpackages of the budget
// service: health (liveness/readiness probes) and metrics (Prometheus
// collection and exposition).
package telemetry
