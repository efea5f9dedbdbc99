package api

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/analytics"
	"github.com/patrickwarner/identrelay/internal/config"
	"github.com/patrickwarner/identrelay/internal/geoip"
	"github.com/patrickwarner/identrelay/internal/identification"
	"github.com/patrickwarner/identrelay/internal/models"
	"github.com/patrickwarner/identrelay/internal/observability"
)

var tracer = otel.Tracer("identrelay")

// Identifier performs the single upstream identification call.
type Identifier interface {
	Identify(ctx context.Context, apiKey string, payload models.UpstreamPayload) (*identification.Reply, error)
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger     *zap.Logger
	Config     config.Config
	Identifier Identifier
	Recorder   analytics.Recorder
	GeoIP      *geoip.GeoIP
	Metrics    observability.MetricsRegistry

	events sync.WaitGroup
}

// NewServer constructs a Server. A nil recorder disables event emission.
func NewServer(logger *zap.Logger, cfg config.Config, identifier Identifier, recorder analytics.Recorder, geo *geoip.GeoIP, metrics observability.MetricsRegistry) *Server {
	if recorder == nil {
		recorder = analytics.NoopRecorder{}
	}
	return &Server{
		Logger:     logger,
		Config:     cfg,
		Identifier: identifier,
		Recorder:   recorder,
		GeoIP:      geo,
		Metrics:    metrics,
	}
}

// eventTimeout bounds a single background event emission.
func (s *Server) eventTimeout() time.Duration {
	if s.Config.EventTimeout > 0 {
		return s.Config.EventTimeout
	}
	return config.DefaultEventTimeout
}

// WaitForEvents blocks until every in-flight identification event has been
// handed to the recorder or ctx is done.
func (s *Server) WaitForEvents(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.events.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
