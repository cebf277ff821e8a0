package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "utsav/pkg/platform/audit"
	"utsav/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Action:         string(audit.EventPaymentConfirmed),
		RegistrationID: "R-K7KQ3ZJM",
		Timestamp:      time.Now(),
	})
	require.NoError(t, err)

	events := store.ByAction(audit.EventPaymentConfirmed)
	require.Len(t, events, 1)
	assert.Equal(t, "R-K7KQ3ZJM", events[0].RegistrationID)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventRegistrationSubmitted),
	})
	require.NoError(t, err)

	// Close flushes the buffer before returning.
	pub.Close()

	require.Len(t, store.ByAction(audit.EventRegistrationSubmitted), 1)
}

func TestPublisher_EmitAfterCloseDropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))
	pub.Close()

	// Late emits happen when detached fan-out work outlives shutdown.
	// They must drop the event, not panic on the closed inbox.
	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventLedgerAppended),
	})
	require.NoError(t, err)
	assert.Empty(t, store.ByAction(audit.EventLedgerAppended))

	// Close is idempotent.
	pub.Close()
}

func TestCategoryDerivation(t *testing.T) {
	assert.Equal(t, audit.CategoryCompliance, audit.EventPaymentConfirmed.Category())
	assert.Equal(t, audit.CategoryCompliance, audit.EventLedgerAppended.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventArtifactRendered.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown_action").Category())
}
