package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identrelay_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identrelay_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// upstream identification calls labelled by outcome
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identrelay_upstream_requests_total",
			Help: "Total identification API requests",
		},
		[]string{"outcome"},
	)

	UpstreamLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "identrelay_upstream_duration_seconds",
			Help:    "Duration of identification API requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	// client IPs replaced by the fallback address
	IPFallbackCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identrelay_ip_fallback_total",
			Help: "Total direct-mode requests whose client IP was replaced",
		},
	)

	// successful identifications by input mode and UA device class
	IdentificationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identrelay_identifications_total",
			Help: "Total successful identifications",
		},
		[]string{"mode", "device"},
	)

	SinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identrelay_sink_errors_total",
			Help: "Total identification event sink failures",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		UpstreamRequests,
		UpstreamLatency,
		IPFallbackCount,
		IdentificationCount,
		SinkErrors,
	)
}
