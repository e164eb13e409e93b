package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request metrics are registered once per process and shared by all
// client instances.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to the nutrition API",
		},
		[]string{"method", "endpoint", "status_code"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Nutrition API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	unauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_unauthorized_total",
			Help: "Total number of 401 responses that evicted a session",
		},
	)
)
