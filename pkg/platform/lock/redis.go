package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"namecart/pkg/platform/sentinel"
)

const keyPrefix = "namecart:lock:"

var redisLockLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "namecart_lock_redis_latency_seconds",
	Help:    "Latency of Redis lock operations",
	Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
}, []string{"operation"})

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks across service instances.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (r *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	start := time.Now()
	defer func() {
		redisLockLatency.WithLabelValues("acquire").Observe(time.Since(start).Seconds())
	}()

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, sentinel.ErrNotAcquired
	}
	return &Lease{key: key, token: token, release: r.release}, nil
}

func (r *RedisLocker) release(ctx context.Context, key, token string) error {
	start := time.Now()
	defer func() {
		redisLockLatency.WithLabelValues("release").Observe(time.Since(start).Seconds())
	}()

	if err := releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
