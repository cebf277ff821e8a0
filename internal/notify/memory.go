package notify

import (
	"context"
	"sync"
)

// Recorder collects sent messages in memory. It doubles as the local-dev
// notifier and the fake used across the test suites.
type Recorder struct {
	mu   sync.Mutex
	sent []Message

	// FailFor makes Send fail for the listed recipients, simulating partial
	// delivery (registrant ok, operator down).
	FailFor map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailFor[msg.To]; ok {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a snapshot of delivered messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// SentTo returns delivered messages addressed to one recipient.
func (r *Recorder) SentTo(addr string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}
