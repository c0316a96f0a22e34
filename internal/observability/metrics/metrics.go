// Package metrics provides Prometheus instrumentation for matchfund.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enabled  bool
	registry *prometheus.Registry

	// Contract call metrics
	contractCallsTotal *prometheus.CounterVec
	receiptWait        *prometheus.HistogramVec

	// Deployment metrics
	deploymentsTotal *prometheus.CounterVec

	// Operator input metrics
	validationErrorsTotal *prometheus.CounterVec
)

// Init initializes the metrics system with a fresh private registry.
func Init(enabledFlag bool) {
	enabled = enabledFlag
	registry = nil

	if !enabled {
		return
	}

	registry = prometheus.NewRegistry()
	factory := promauto.With(registry)

	// Contract call counter
	contractCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfund_contract_calls_total",
			Help: "Total number of contract calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	// Receipt wait histogram
	receiptWait = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchfund_receipt_wait_seconds",
			Help:    "Time from submitting a transaction until its receipt was available",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// Deployment counter
	deploymentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfund_deployments_total",
			Help: "Total number of contract deployments by outcome",
		},
		[]string{"status"},
	)

	// Validation error counter
	validationErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchfund_validation_errors_total",
			Help: "Total number of rejected operator inputs",
		},
		[]string{"field", "kind"},
	)
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// Gatherer returns the registry backing the metrics, or nil when disabled.
func Gatherer() prometheus.Gatherer {
	if registry == nil {
		return nil
	}
	return registry
}
