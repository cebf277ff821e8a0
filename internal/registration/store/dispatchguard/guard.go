// Package dispatchguard provides short-lived in-flight markers for fan-out
// effects. A guard prevents two workers from running the same effect for the
// same registration at the same time; durable "already recorded" state lives
// in the registration store, not here.
package dispatchguard

import (
	"context"
	"sync"
	"time"
)

// Guard acquires a per-key marker with a TTL. Acquire returns false when
// another holder already has the key.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// InMemory is the single-instance guard. Expired entries are reaped lazily on
// the next Acquire for the same key.
type InMemory struct {
	mu      sync.Mutex
	held    map[string]time.Time
	nowFunc func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{held: make(map[string]time.Time), nowFunc: time.Now}
}

func (g *InMemory) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	if expiry, ok := g.held[key]; ok && now.Before(expiry) {
		return false, nil
	}
	g.held[key] = now.Add(ttl)
	return true, nil
}

func (g *InMemory) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}
