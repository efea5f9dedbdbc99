package models

import "time"

// IdentificationEvent describes one successful relay. It is emitted to the
// configured analytics sinks.
type IdentificationEvent struct {
	Timestamp         time.Time `json:"timestamp"`
	RelayRequestID    string    `json:"relay_request_id"`
	RequestID         string    `json:"request_id"`
	VisitorID         string    `json:"visitor_id"`
	Mode              string    `json:"mode"`
	ClientIP          string    `json:"client_ip"`
	IPFallback        bool      `json:"ip_fallback"`
	Country           string    `json:"country,omitempty"`
	Region            string    `json:"region,omitempty"`
	DeviceType        string    `json:"device_type"`
	IsBotUA           bool      `json:"is_bot_ua"`
	UpstreamLatencyMs float64   `json:"upstream_latency_ms"`
	BackendLatencyMs  float64   `json:"backend_latency_ms"`
}
