package budget

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the budget engine.
type Metrics struct {
	// Charge outcomes
	charges       *prometheus.CounterVec
	chargedAmount *prometheus.CounterVec

	// Alert creation
	alerts *prometheus.CounterVec

	// Resets
	resets *prometheus.CounterVec

	// Current utilization per budget
	utilization *prometheus.GaugeVec

	// Operation latency
	opDuration *prometheus.HistogramVec
}

// NewMetrics creates budget metrics registered on the given registerer.
// Passing nil registers on the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		charges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_budget_charges_total",
				Help: "Total number of charge attempts by result",
			},
			[]string{"budget", "result"},
		),

		chargedAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_budget_charged_amount_total",
				Help: "Total amount committed to budgets",
			},
			[]string{"budget"},
		),

		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_budget_alerts_total",
				Help: "Total number of cost alerts created by severity",
			},
			[]string{"budget", "severity"},
		),

		resets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_budget_resets_total",
				Help: "Total number of budget resets",
			},
			[]string{"budget"},
		),

		utilization: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tally_budget_utilization_ratio",
				Help: "Current budget utilization (used/limit)",
			},
			[]string{"budget"},
		),

		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_budget_op_duration_seconds",
				Help:    "Duration of budget operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"operation"},
		),
	}
}

// RecordCharge records a charge attempt outcome.
func (m *Metrics) RecordCharge(budgetName string, result string, amount float64) {
	m.charges.WithLabelValues(budgetName, result).Inc()
	if result == "committed" {
		m.chargedAmount.WithLabelValues(budgetName).Add(amount)
	}
}

// RecordAlert records a created cost alert.
func (m *Metrics) RecordAlert(budgetName string, severity AlertSeverity) {
	m.alerts.WithLabelValues(budgetName, string(severity)).Inc()
}

// RecordReset records a budget reset.
func (m *Metrics) RecordReset(budgetName string) {
	m.resets.WithLabelValues(budgetName).Inc()
}

// UpdateUtilization updates the utilization gauge for a budget.
func (m *Metrics) UpdateUtilization(budgetName string, ratio float64) {
	m.utilization.WithLabelValues(budgetName).Set(ratio)
}

// RecordOpDuration records the duration of a budget operation.
func (m *Metrics) RecordOpDuration(operation string, seconds float64) {
	m.opDuration.WithLabelValues(operation).Observe(seconds)
}
