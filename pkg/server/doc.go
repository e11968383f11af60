// Package server provides the HTTP API for the tally budget service.
//
// The server exposes the budget engine over a JSON REST API:
//
//	POST   /v1/budgets                      create a budget
//	GET    /v1/budgets                      list budgets
//	GET    /v1/budgets/{id}                 get a budget
//	POST   /v1/budgets/{id}/charge          check-and-charge
//	POST   /v1/budgets/{id}/reset           reset consumption
//	POST   /v1/budgets/{id}/deactivate      soft-delete
//	GET    /v1/budgets/{id}/report          per-budget aggregation
//	GET    /v1/budgets/{id}/alerts          alert history
//	POST   /v1/alerts/{id}/resolve          resolve an alert
//	POST   /v1/alerts/{id}/read             mark an alert read
//	GET    /v1/analytics                    cross-budget summary
//
// plus /health, /ready, /version and the Prometheus /metrics endpoint.
// Domain errors map onto HTTP status codes: not found is 404, version
// conflicts are 409, inactive/expired/invalid-amount rejections are 422,
// and malformed requests are 400.
package server
