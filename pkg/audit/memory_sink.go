package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySink stores audit events in memory (development/testing use)
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates a new in-memory audit sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores one event in memory
func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of all stored events (for testing/inspection)
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsForUser returns all stored events for one user
func (s *MemorySink) EventsForUser(userID uuid.UUID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, event := range s.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	return out
}

// Count returns the number of stored events
func (s *MemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
