package models

import "encoding/json"

// ResolvedContext is the normalized set of client fields required by the
// identification API. It is built once per request and never mutated.
type ResolvedContext struct {
	FingerprintPayload json.RawMessage
	ClientIP           string
	ClientHost         string
	ClientUserAgent    string
	ClientCookie       *string
	ClientHeaders      map[string]string
	// Verbatim is the chained bundle the typed fields were read from. When
	// set it is what goes upstream, byte for byte.
	Verbatim *CollectedData
}

// UpstreamPayload is the wire body POSTed to the identification API.
type UpstreamPayload struct {
	FingerprintData json.RawMessage   `json:"fingerprintData"`
	ClientIP        string            `json:"clientIP"`
	ClientHost      string            `json:"clientHost"`
	ClientUserAgent string            `json:"clientUserAgent"`
	ClientCookie    *string           `json:"clientCookie,omitempty"`
	ClientHeaders   map[string]string `json:"clientHeaders"`
	Verbatim        *CollectedData    `json:"-"`
}

// MarshalJSON writes the chained bundle unchanged when there is one.
func (p UpstreamPayload) MarshalJSON() ([]byte, error) {
	if p.Verbatim != nil {
		return json.Marshal(p.Verbatim)
	}
	type wire UpstreamPayload
	return json.Marshal(wire(p))
}

// Payload converts the context into its wire form. ClientCookie is left out
// of the JSON entirely when nil.
func (c ResolvedContext) Payload() UpstreamPayload {
	return UpstreamPayload{
		FingerprintData: c.FingerprintPayload,
		ClientIP:        c.ClientIP,
		ClientHost:      c.ClientHost,
		ClientUserAgent: c.ClientUserAgent,
		ClientCookie:    c.ClientCookie,
		ClientHeaders:   c.ClientHeaders,
		Verbatim:        c.Verbatim,
	}
}

// UpstreamResult is the subset of the identification API reply the relay
// reads. Every nested level is optional.
type UpstreamResult struct {
	Products  *Products       `json:"products,omitempty"`
	AgentData json.RawMessage `json:"agentData,omitempty"`
	RequestID *string         `json:"requestId,omitempty"`
}

type Products struct {
	Identification *IdentificationProduct `json:"identification,omitempty"`
	Botd           *BotdProduct           `json:"botd,omitempty"`
}

type IdentificationProduct struct {
	Data *IdentificationData `json:"data,omitempty"`
}

type IdentificationData struct {
	VisitorID *string `json:"visitorId,omitempty"`
}

type BotdProduct struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// VisitorID returns products.identification.data.visitorId or nil.
func (u *UpstreamResult) VisitorID() *string {
	if u == nil || u.Products == nil || u.Products.Identification == nil || u.Products.Identification.Data == nil {
		return nil
	}
	return u.Products.Identification.Data.VisitorID
}

// Botd returns products.botd.data or nil.
func (u *UpstreamResult) Botd() json.RawMessage {
	if u == nil || u.Products == nil || u.Products.Botd == nil {
		return nil
	}
	return u.Products.Botd.Data
}

// OutboundResponse is returned to the caller on success. Fields missing from
// the upstream reply are omitted.
type OutboundResponse struct {
	Success        bool            `json:"success"`
	VisitorID      *string         `json:"visitorId,omitempty"`
	AgentData      json.RawMessage `json:"agentData,omitempty"`
	BackendLatency float64         `json:"backendLatency"`
	Botd           json.RawMessage `json:"botd,omitempty"`
	RequestID      *string         `json:"requestId,omitempty"`
}

// NewOutboundResponse distills an upstream reply. backendLatency is the
// cumulative latency in milliseconds.
func NewOutboundResponse(res *UpstreamResult, backendLatency float64) OutboundResponse {
	out := OutboundResponse{
		Success:        true,
		VisitorID:      res.VisitorID(),
		BackendLatency: backendLatency,
		Botd:           res.Botd(),
	}
	if res != nil {
		out.AgentData = res.AgentData
		out.RequestID = res.RequestID
	}
	return out
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
