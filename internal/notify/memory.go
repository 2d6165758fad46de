// README: In-memory publisher recording events for test assertions.
package notify

import (
	"context"
	"sync"
)

type RecordedEvent struct {
	Key     string
	Payload any
}

type Memory struct {
	mu     sync.Mutex
	events []RecordedEvent
	err    error
}

func NewMemory() *Memory {
	return &Memory{}
}

// WithError makes subsequent publishes fail, for testing the fire-and-forget path.
func (m *Memory) WithError(err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *Memory) PublishJSON(_ context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, RecordedEvent{Key: key, Payload: v})
	return nil
}

// Events returns a snapshot of everything published so far.
func (m *Memory) Events() []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedEvent, len(m.events))
	copy(out, m.events)
	return out
}
