// Package metrics provides Prometheus metric collection for the budget
// service.
//
// The Collector owns a dedicated registry so tests never collide on the
// global default registry. Domain metrics (the tally_budget_* family) are
// registered on the collector's registry by the budget package; the
// collector adds the standard Go runtime and process collectors and exposes
// everything through an HTTP handler.
//
// # Example
//
//	collector := metrics.NewCollector(nil)
//	budgetMetrics := budget.NewMetrics(collector.Registry())
//	mux.Handle("/metrics", collector.Handler())
package metrics
