package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "driversync", Name: "api_requests_total", Help: "Total API calls issued, by endpoint and outcome"},
		[]string{"endpoint", "outcome"},
	)
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driversync",
			Name:      "api_request_duration_seconds",
			Help:      "API call latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "driversync", Name: "bookings_created_total", Help: "Bookings successfully created"})
	BookingsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "driversync", Name: "bookings_decided_total", Help: "Bookings moved to a terminal status"},
		[]string{"status"},
	)

	StubRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "driversync_stub", Name: "http_requests_total", Help: "Total HTTP requests handled by the stub server"},
		[]string{"method", "path", "status"},
	)
	StubRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driversync_stub",
			Name:      "http_request_duration_seconds",
			Help:      "Stub server request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
