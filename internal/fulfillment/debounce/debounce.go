// Package debounce records when each wallet's reconciliation pass last
// finished, so bursts of status polls collapse into one registrar sweep.
package debounce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "namecart:reconcile:last:"

// InMemoryTracker is process-local.
type InMemoryTracker struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewInMemoryTracker() *InMemoryTracker {
	return &InMemoryTracker{last: make(map[string]time.Time)}
}

func (t *InMemoryTracker) LastCompleted(_ context.Context, wallet string) (time.Time, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.last[wallet]
	return at, ok, nil
}

func (t *InMemoryTracker) MarkCompleted(_ context.Context, wallet string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[wallet] = at
	return nil
}

// RedisTracker shares debounce state across instances. Entries expire after
// retention so idle wallets do not accumulate keys.
type RedisTracker struct {
	client    redis.UniversalClient
	retention time.Duration
}

func NewRedisTracker(client redis.UniversalClient, retention time.Duration) *RedisTracker {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisTracker{client: client, retention: retention}
}

func (t *RedisTracker) LastCompleted(ctx context.Context, wallet string) (time.Time, bool, error) {
	raw, err := t.client.Get(ctx, keyPrefix+wallet).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read reconcile marker for %s: %w", wallet, err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse reconcile marker for %s: %w", wallet, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (t *RedisTracker) MarkCompleted(ctx context.Context, wallet string, at time.Time) error {
	if err := t.client.Set(ctx, keyPrefix+wallet, strconv.FormatInt(at.UnixMilli(), 10), t.retention).Err(); err != nil {
		return fmt.Errorf("write reconcile marker for %s: %w", wallet, err)
	}
	return nil
}
