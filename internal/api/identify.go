package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/identification"
	"github.com/patrickwarner/identrelay/internal/logic"
	"github.com/patrickwarner/identrelay/internal/middleware"
	"github.com/patrickwarner/identrelay/internal/models"
	"github.com/patrickwarner/identrelay/internal/observability"
)

// decodeInboundRequest reads and unmarshals the relay request body.
func decodeInboundRequest(r *http.Request) (*models.InboundRequest, error) {
	defer func() {
		_ = r.Body.Close()
	}()

	var req models.InboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &req, nil
}

// IdentifyHandler handles POST /identify. It resolves the client context,
// performs one identification API call and returns the distilled result
// along with every Set-Cookie of the upstream reply.
func (s *Server) IdentifyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "IdentifyHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/identify"),
		))
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "identify"
	const method = "POST"

	fail := func(err error) {
		status := statusFor(err)
		outcome := outcomeFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if status >= http.StatusInternalServerError {
			logger.Error("identification failed", zap.Error(err), zap.String("outcome", outcome))
		} else {
			logger.Warn("invalid identification request", zap.Error(err))
		}
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		if werr := writeError(w, status, err.Error()); werr != nil {
			logger.Error("write error response", zap.Error(werr))
		}
	}

	req, err := decodeInboundRequest(r)
	if err != nil {
		fail(&ValidationError{Err: err})
		return
	}

	input, err := logic.ResolveInput(req, r, s.Config.FallbackIP)
	if err != nil {
		fail(&ValidationError{Err: err})
		return
	}
	if input.IPFallback {
		logger.Warn("client IP missing or malformed, using fallback",
			zap.String("raw_ip", input.RawIP),
			zap.String("fallback_ip", input.Context.ClientIP))
		s.Metrics.IncrementIPFallback()
	}
	span.SetAttributes(
		attribute.String("relay.mode", string(input.Mode)),
		attribute.Bool("relay.ip_fallback", input.IPFallback),
	)

	if s.Config.APIKey == "" {
		fail(errMissingAPIKey)
		return
	}

	// The upstream call outlives a client disconnect; trace values are kept.
	upstreamCtx := context.WithoutCancel(ctx)
	callStart := time.Now()
	reply, err := s.Identifier.Identify(upstreamCtx, s.Config.APIKey, input.Context.Payload())
	if err != nil {
		fail(err)
		return
	}
	elapsed := time.Since(callStart)
	backendLatency := float64(elapsed.Milliseconds()) + input.PriorLatency

	resp := models.NewOutboundResponse(&reply.Result, backendLatency)
	for _, c := range reply.SetCookies {
		w.Header().Add("Set-Cookie", c)
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("write response", zap.Error(err))
	}

	// Sinks run after the response so a slow ClickHouse or Redis never
	// delays the caller.
	s.events.Add(1)
	go func() {
		defer s.events.Done()
		evCtx, cancel := context.WithTimeout(upstreamCtx, s.eventTimeout())
		defer cancel()
		s.emitEvent(evCtx, logger, input, reply, elapsed, backendLatency)
	}()
}

// emitEvent enriches the identification and hands it to the recorder. It runs
// in the background, so sink failures are only logged.
func (s *Server) emitEvent(ctx context.Context, logger *zap.Logger, input logic.Input, reply *identification.Reply, elapsed time.Duration, backendLatency float64) {
	profile := logic.ResolveProfile(s.GeoIP, input.Context)
	s.Metrics.IncrementIdentifications(string(input.Mode), profile.DeviceType)

	ev := models.IdentificationEvent{
		Timestamp:         time.Now().UTC(),
		RelayRequestID:    middleware.RequestIDFromContext(ctx),
		Mode:              string(input.Mode),
		ClientIP:          input.Context.ClientIP,
		IPFallback:        input.IPFallback,
		Country:           profile.Country,
		Region:            profile.Region,
		DeviceType:        profile.DeviceType,
		IsBotUA:           profile.IsBot,
		UpstreamLatencyMs: float64(elapsed.Milliseconds()),
		BackendLatencyMs:  backendLatency,
	}
	if id := reply.Result.VisitorID(); id != nil {
		ev.VisitorID = *id
	}
	if reply.Result.RequestID != nil {
		ev.RequestID = *reply.Result.RequestID
	}

	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Info("identification relayed",
			zap.String("visitor_id", ev.VisitorID),
			zap.String("request_id", ev.RequestID),
			zap.String("mode", ev.Mode),
			zap.String("device_type", ev.DeviceType),
			zap.String("country", ev.Country),
			zap.Float64("backend_latency_ms", backendLatency))
	}

	if err := s.Recorder.Record(ctx, ev); err != nil {
		logger.Error("record identification event", zap.Error(err))
	}
}
