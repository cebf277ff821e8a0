package ledger

import (
	"context"
	"sync"

	"utsav/pkg/platform/sentinel"
)

// InMemory keeps sheets in process. It backs tests and local development,
// including outage simulation via SetAvailable.
type InMemory struct {
	mu        sync.Mutex
	sheets    map[string][]Row
	available bool
}

func NewInMemory() *InMemory {
	return &InMemory{sheets: make(map[string][]Row), available: true}
}

// SetAvailable toggles simulated outages. While false every call returns
// sentinel.ErrUnavailable.
func (l *InMemory) SetAvailable(up bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available = up
}

func (l *InMemory) EnsureSheet(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.available {
		return sentinel.ErrUnavailable
	}
	if _, ok := l.sheets[name]; !ok {
		l.sheets[name] = []Row{{Cells: append([]string(nil), Header...)}}
	}
	return nil
}

func (l *InMemory) AppendRow(ctx context.Context, sheet string, row Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.available {
		return sentinel.ErrUnavailable
	}
	if _, ok := l.sheets[sheet]; !ok {
		return sentinel.ErrNotFound
	}
	l.sheets[sheet] = append(l.sheets[sheet], row)
	return nil
}

// Rows returns the sheet's rows including the header.
func (l *InMemory) Rows(sheet string) []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Row(nil), l.sheets[sheet]...)
}
