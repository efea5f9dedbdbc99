package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/patrickwarner/identrelay/internal/models"
	"github.com/patrickwarner/identrelay/internal/observability"
)

// ErrUnavailable is returned when a sink's backing store is not configured.
var ErrUnavailable = errors.New("analytics unavailable")

// Recorder persists or publishes identification events.
type Recorder interface {
	Name() string
	Record(ctx context.Context, ev models.IdentificationEvent) error
	Close() error
}

// NoopRecorder discards every event.
type NoopRecorder struct{}

func (NoopRecorder) Name() string                                             { return "noop" }
func (NoopRecorder) Record(context.Context, models.IdentificationEvent) error { return nil }
func (NoopRecorder) Close() error                                             { return nil }

// MultiRecorder fans an event out to every sink. A failing sink does not
// stop the others; failures are counted per sink and joined.
type MultiRecorder struct {
	sinks   []Recorder
	metrics observability.MetricsRegistry
}

// NewMultiRecorder returns a Recorder over sinks.
func NewMultiRecorder(metrics observability.MetricsRegistry, sinks ...Recorder) *MultiRecorder {
	return &MultiRecorder{sinks: sinks, metrics: metrics}
}

func (m *MultiRecorder) Name() string { return "multi" }

// Len reports the number of configured sinks.
func (m *MultiRecorder) Len() int { return len(m.sinks) }

func (m *MultiRecorder) Record(ctx context.Context, ev models.IdentificationEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, ev); err != nil {
			m.metrics.IncrementSinkErrors(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiRecorder) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
