package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry for the budget service.
type Collector struct {
	registry *prometheus.Registry
}

// NewCollector creates a collector over the given registry. A nil registry
// creates a fresh one. The standard Go runtime and process collectors are
// registered.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{registry: registry}
}

// Registry returns the underlying registry for registering domain metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
