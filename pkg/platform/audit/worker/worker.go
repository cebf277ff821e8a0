// Package worker drains the audit outbox into Kafka. Kafka is the durable
// audit stream; the outbox exists so domain writes never wait on the broker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	outbox "utsav/pkg/platform/audit/store/postgres"
)

// Worker polls the outbox and publishes pending entries.
type Worker struct {
	store    *outbox.Store
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

// New constructs the outbox worker. The kgo client is owned by the caller.
func New(store *outbox.Store, client *kgo.Client, topic string, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{store: store, client: client, topic: topic, interval: interval, logger: logger}
}

// NewClient dials the Kafka brokers.
func NewClient(brokers []string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
}

const batchSize = 100

// Run drains the outbox until ctx is cancelled. Publish failures leave rows
// unmarked, so the next tick retries them; duplicates on the stream are
// acceptable, losses are not.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.publishPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox publish failed", "error", err.Error())
			}
		}
	}
}

func (w *Worker) publishPending(ctx context.Context) error {
	pending, err := w.store.Pending(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(pending))
	for i, row := range pending {
		records[i] = &kgo.Record{
			Topic: w.topic,
			Key:   []byte(row.ID.String()),
			Value: row.Payload,
		}
	}

	results := w.client.ProduceSync(ctx, records...)
	published := make([]uuid.UUID, 0, len(pending))
	for _, res := range results {
		if res.Err != nil {
			w.logger.WarnContext(ctx, "audit record not produced",
				"key", string(res.Record.Key), "error", res.Err.Error())
			continue
		}
		id, err := uuid.Parse(string(res.Record.Key))
		if err != nil {
			continue
		}
		published = append(published, id)
	}
	return w.store.MarkPublished(ctx, published, time.Now())
}
