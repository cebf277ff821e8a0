// Package memory is the in-process audit store used by tests and local runs.
package memory

import (
	"context"
	"sync"

	audit "utsav/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of appended events.
func (s *InMemoryStore) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

// ByAction returns appended events matching the action.
func (s *InMemoryStore) ByAction(action audit.AuditEvent) []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}
