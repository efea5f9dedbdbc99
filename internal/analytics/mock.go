package analytics

import (
	"context"
	"sync"

	"github.com/patrickwarner/identrelay/internal/models"
)

var _ Recorder = (*MockRecorder)(nil)

// MockRecorder captures events in memory for tests. Err, when set, is
// returned from every Record call after the event is captured.
type MockRecorder struct {
	mu     sync.Mutex
	events []models.IdentificationEvent
	Err    error
}

func (m *MockRecorder) Name() string { return "mock" }

func (m *MockRecorder) Record(_ context.Context, ev models.IdentificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.Err
}

func (m *MockRecorder) Close() error { return nil }

// Events returns a copy of the captured events.
func (m *MockRecorder) Events() []models.IdentificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IdentificationEvent(nil), m.events...)
}
