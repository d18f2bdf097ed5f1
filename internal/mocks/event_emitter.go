package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/marketplace-api/internal/events"
)

// MockEventEmitter records emitted events.
type MockEventEmitter struct {
	mu     sync.Mutex
	events []*events.Event

	// Err is returned by EmitEvent when set. The event is still recorded.
	Err error
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

// Types returns the types of the recorded events in emission order.
func (m *MockEventEmitter) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

// Events returns the recorded events.
func (m *MockEventEmitter) Events() []*events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.Event(nil), m.events...)
}
