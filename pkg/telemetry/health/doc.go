// Package health provides liveness and readiness checks for the budget
// service, plus the HTTP handlers that expose them.
//
// Liveness is a constant-time "the process is up" check. Readiness runs all
// registered component checks (storage ping, for instance) concurrently with
// a per-check timeout and aggregates them: any failing check degrades the
// overall status and the readiness endpoint returns 503.
package health
