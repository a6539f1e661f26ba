package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "assignments_total", Help: "Total number of completed assignments"})
	AssignmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "taxi_dispatch", Name: "assignment_latency_seconds", Help: "Assignment computation latency"})
	VehiclesInService = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "taxi_dispatch", Name: "vehicles_in_service", Help: "Vehicles currently in service"})
	RidesConfirmed    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "rides_confirmed_total", Help: "Total rides confirmed by a dispatcher"})

	AssignmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "assignment_failures_total", Help: "Assignment failures by error code"},
		[]string{"code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxi_dispatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
