package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client the relay needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// RelayStore is the outbox side of the relay.
type RelayStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Claim(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// RelayMetrics is implemented by *metrics.Metrics.
type RelayMetrics interface {
	IncOutboxPublished(n int)
	IncOutboxFailure()
}

// Relay moves outbox rows to Kafka. Delivery is at least once: a crash between
// produce and mark republishes the batch, and consumers dedupe on the event id
// carried in the record header.
type Relay struct {
	store     RelayStore
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   RelayMetrics
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

func WithRelayMetrics(m RelayMetrics) RelayOption {
	return func(r *Relay) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(store RelayStore, producer Producer, topic string, opts ...RelayOption) (*Relay, error) {
	if store == nil {
		return nil, errors.New("outbox store is required")
	}
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	r := &Relay{
		store:     store,
		producer:  producer,
		topic:     topic,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		metrics:   noopMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run relays until ctx is cancelled. Batch errors are logged, not fatal.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RelayOnce publishes one batch and returns how many events were delivered.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := r.store.Claim(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		records := make([]*kgo.Record, len(batch))
		for i, e := range batch {
			records[i] = toRecord(r.topic, e)
		}
		results := r.producer.ProduceSync(ctx, records...)

		ok := make([]uuid.UUID, 0, len(batch))
		for i, res := range results {
			if res.Err != nil {
				r.metrics.IncOutboxFailure()
				r.logger.WarnContext(ctx, "outbox event not delivered",
					"event_id", batch[i].ID,
					"event_type", batch[i].Type,
					"error", res.Err,
				)
				if err := r.store.MarkFailed(ctx, batch[i].ID, res.Err.Error()); err != nil {
					return err
				}
				continue
			}
			ok = append(ok, batch[i].ID)
		}
		if err := r.store.MarkPublished(ctx, ok, r.now()); err != nil {
			return err
		}
		published = len(ok)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 {
		r.metrics.IncOutboxPublished(published)
	}
	return published, nil
}

func toRecord(topic string, e Event) *kgo.Record {
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(e.Key),
		Value:     e.Payload,
		Timestamp: e.CreatedAt,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(e.ID.String())},
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
}

type noopMetrics struct{}

func (noopMetrics) IncOutboxPublished(int) {}
func (noopMetrics) IncOutboxFailure()      {}
