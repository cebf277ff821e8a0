package audit

import "context"

// Store persists audit events. The postgres implementation writes an outbox
// row that the Kafka worker drains; the memory implementation backs tests.
type Store interface {
	Append(ctx context.Context, event Event) error
}
