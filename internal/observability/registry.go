package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Handlers receive it by injection instead of touching the Prometheus globals.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Upstream identification metrics
	IncrementUpstreamRequests(outcome string)
	RecordUpstreamLatency(duration time.Duration)

	// Relay outcome metrics
	IncrementIPFallback()
	IncrementIdentifications(mode, device string)
	IncrementSinkErrors(sink string)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementUpstreamRequests(outcome string) {
	UpstreamRequests.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordUpstreamLatency(duration time.Duration) {
	UpstreamLatency.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementIPFallback() {
	IPFallbackCount.Inc()
}

func (r *PrometheusRegistry) IncrementIdentifications(mode, device string) {
	IdentificationCount.WithLabelValues(mode, device).Inc()
}

func (r *PrometheusRegistry) IncrementSinkErrors(sink string) {
	SinkErrors.WithLabelValues(sink).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementUpstreamRequests(outcome string)                             {}
func (r *NoOpRegistry) RecordUpstreamLatency(duration time.Duration)                         {}
func (r *NoOpRegistry) IncrementIPFallback()                                                 {}
func (r *NoOpRegistry) IncrementIdentifications(mode, device string)                         {}
func (r *NoOpRegistry) IncrementSinkErrors(sink string)                                      {}
