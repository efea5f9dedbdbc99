package models

import (
	"bytes"
	"encoding/json"
)

// InboundRequest is the JSON body accepted by the relay. Callers send either
// FingerprintData (direct mode) or BackendData.CollectedData (chained mode).
type InboundRequest struct {
	FingerprintData json.RawMessage `json:"fingerprintData,omitempty"`
	BackendData     *BackendData    `json:"backendData,omitempty"`
}

// BackendData is a context bundle assembled by an earlier hop.
type BackendData struct {
	CollectedData *CollectedData `json:"collectedData,omitempty"`
	// BackendLatency is the latency in milliseconds already accumulated upstream.
	BackendLatency float64 `json:"backendLatency,omitempty"`
}

// CollectedData is a context bundle produced by a previous relay hop. Each
// field is kept as raw JSON so it can be forwarded without re-derivation;
// absent fields stay absent upstream.
type CollectedData struct {
	FingerprintData json.RawMessage `json:"fingerprintData,omitempty"`
	ClientIP        json.RawMessage `json:"clientIP,omitempty"`
	ClientHost      json.RawMessage `json:"clientHost,omitempty"`
	ClientUserAgent json.RawMessage `json:"clientUserAgent,omitempty"`
	ClientCookie    json.RawMessage `json:"clientCookie,omitempty"`
	ClientHeaders   json.RawMessage `json:"clientHeaders,omitempty"`
}

// HasFingerprintData reports whether a non-null fingerprint payload was sent.
func (r *InboundRequest) HasFingerprintData() bool {
	return IsPresent(r.FingerprintData)
}

// Collected returns the chained bundle or nil.
func (r *InboundRequest) Collected() *CollectedData {
	if r.BackendData == nil {
		return nil
	}
	return r.BackendData.CollectedData
}

// PriorLatency returns backendData.backendLatency, or 0 when absent.
func (r *InboundRequest) PriorLatency() float64 {
	if r.BackendData == nil {
		return 0
	}
	return r.BackendData.BackendLatency
}

// IsPresent reports whether raw holds a JSON value other than null.
func IsPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// RawString returns raw as a Go string when it holds a JSON string, else "".
func RawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
