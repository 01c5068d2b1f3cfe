// Package metrics declares the Prometheus collectors of the console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paycms"

var (
	// CMSResults counts mock CMS responses partitioned by operation and
	// result code.
	CMSResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cms",
			Name:      "results_total",
			Help:      "Mock CMS responses, partitioned by operation and result code",
		},
		[]string{"operation", "result_cd"},
	)

	// SettlementCalculations counts settlement-date computations partitioned
	// by service code and settlement policy.
	SettlementCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "settlement_calculations_total",
			Help:      "Settlement date computations, partitioned by service code and policy",
		},
		[]string{"service_cd", "policy"},
	)

	// HTTPRequestDuration observes handler latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, partitioned by method, route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
