// Package publisher emits audit events to a Store, synchronously by default
// or through a buffered channel when the caller must not wait on audit I/O.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "utsav/pkg/platform/audit"
)

// Publisher emits audit events. A dropped audit event is logged, never
// allowed to fail the domain operation that produced it.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	done  chan struct{}
	once  sync.Once

	mu     sync.RWMutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to a buffered channel drained by a
// background goroutine. Emit then never blocks on store latency; a full
// buffer drops the event with a warning.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for drop/append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records one audit event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit append failed", "action", event.Action, "error", err.Error())
			return err
		}
		return nil
	}

	// Detached fan-out work can outlive the request that started it and
	// emit during shutdown. The RLock keeps the send ordered before Close
	// closes the inbox; a late Emit drops the event instead of panicking.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("audit publisher closed, event dropped", "action", event.Action)
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, event dropped", "action", event.Action)
	}
	return nil
}

// Close stops the async drain goroutine, flushing buffered events first.
func (p *Publisher) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err.Error())
		}
	}
}
