package services

import (
	"context"
	"sync"
)

// MockEventPublisher records published events for testing
type MockEventPublisher struct {
	events []ReportEvent
	Err    error
	mu     sync.RWMutex
}

// NewMockEventPublisher creates a new mock publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event, then returns Err
func (m *MockEventPublisher) Publish(ctx context.Context, event ReportEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return m.Err
}

// Events returns a copy of every recorded event
func (m *MockEventPublisher) Events() []ReportEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]ReportEvent, len(m.events))
	copy(events, m.events)
	return events
}

// Clear forgets recorded events
func (m *MockEventPublisher) Clear() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
