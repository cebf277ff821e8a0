package store

import (
	"context"
	"sort"
	"sync"

	"utsav/internal/outreach/models"
)

// InMemory is the development and test store.
type InMemory struct {
	mu       sync.Mutex
	byDedupe map[string]*models.Message
}

func NewInMemory() *InMemory {
	return &InMemory{byDedupe: make(map[string]*models.Message)}
}

func (s *InMemory) CreateIfAbsent(ctx context.Context, msg *models.Message) (*models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byDedupe[msg.DedupeKey]; ok {
		return copyOf(existing), false, nil
	}
	s.byDedupe[msg.DedupeKey] = copyOf(msg)
	return copyOf(msg), true, nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Message, 0, len(s.byDedupe))
	for _, m := range s.byDedupe {
		out = append(out, copyOf(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func copyOf(m *models.Message) *models.Message {
	c := *m
	c.SocialLinks = append([]string(nil), m.SocialLinks...)
	return &c
}
