// Package metrics defines the Prometheus counters for a movmedian run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a run.
type Metrics struct {
	Observed prometheus.Counter
	Evicted  prometheus.Counter
	Skipped  prometheus.Counter
	Rejected *prometheus.CounterVec
	Groups   prometheus.Gauge
	Distinct prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	observed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movmedian_values_observed_total",
		Help: "Total values added to an aggregate",
	})

	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movmedian_values_evicted_total",
		Help: "Total window slots recycled for a newer value",
	})

	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movmedian_values_null_total",
		Help: "Total empty input values skipped as null",
	})

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movmedian_lines_rejected_total",
		Help: "Total input lines rejected, by reason",
	}, []string{"reason"})

	groups := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "movmedian_groups",
		Help: "Number of distinct group keys seen",
	})

	distinct := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "movmedian_distinct_values",
		Help: "Distinct values held across all aggregates at end of input",
	})

	reg.MustRegister(observed, evicted, skipped, rejected, groups, distinct)

	return &Metrics{
		Observed: observed,
		Evicted:  evicted,
		Skipped:  skipped,
		Rejected: rejected,
		Groups:   groups,
		Distinct: distinct,
	}
}
