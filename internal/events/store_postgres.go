package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	txcontext "namecart/pkg/platform/tx"
)

// PostgresStore writes to fulfillment_outbox. Append joins the caller's
// transaction when ctx carries one, so the event commits with the state change.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	_, err := txcontext.ExecutorFor(ctx, s.pool).Exec(ctx, `
		INSERT INTO fulfillment_outbox (id, event_type, aggregate_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Type, e.Key, []byte(e.Payload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.pool, fn)
}

// Claim locks up to limit unpublished rows. Call inside WithinTx so the lock
// holds until the batch is marked.
func (s *PostgresStore) Claim(ctx context.Context, limit int) ([]Event, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.pool).Query(ctx, `
		SELECT id, event_type, aggregate_key, payload, created_at, attempts
		FROM fulfillment_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Key, &payload, &e.CreatedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := txcontext.ExecutorFor(ctx, s.pool).Exec(ctx, `
		UPDATE fulfillment_outbox SET published_at = $2, last_error = NULL
		WHERE id = ANY($1)`, ids, at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := txcontext.ExecutorFor(ctx, s.pool).Exec(ctx, `
		UPDATE fulfillment_outbox SET attempts = attempts + 1, last_error = $2
		WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
