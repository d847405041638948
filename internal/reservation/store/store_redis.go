package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"namecart/internal/reservation/models"
	"namecart/pkg/platform/sentinel"
)

var redisOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "namecart_reservation_redis_duration_ms",
	Help:    "Latency of Redis reservation operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"operation"})

const (
	reservationKeyPrefix = "namecart:resv:"
	userSetKeyPrefix     = "namecart:resv-user:"
)

// Value layout: "<user>|<createdAtUnixMilli>". Expiry lives in the key TTL.
var (
	// refreshScript extends the TTL only when the caller already holds the key.
	refreshScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return -1 end
if string.sub(cur, 1, string.len(ARGV[1]) + 1) ~= ARGV[1] .. "|" then return 0 end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`)
	// releaseScript deletes the key only when the caller holds it.
	releaseScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if string.sub(cur, 1, string.len(ARGV[1]) + 1) ~= ARGV[1] .. "|" then return 0 end
return redis.call("DEL", KEYS[1])
`)
)

// RedisStore shares reservations across instances. Each domain is a key set
// with NX and a millisecond TTL; a per-user set indexes holds for cart clear.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func observe(op string, start time.Time) {
	redisOpDuration.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func (s *RedisStore) Acquire(ctx context.Context, r models.Reservation, now time.Time) (*models.Reservation, error) {
	defer observe("acquire", time.Now())

	ttl := r.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil, fmt.Errorf("reservation for %s already expired", r.DomainName)
	}
	key := reservationKeyPrefix + r.DomainName

	for range 2 {
		ok, err := s.client.SetNX(ctx, key, encodeValue(r.UserID, r.CreatedAt), ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve %s: %w", r.DomainName, err)
		}
		if ok {
			s.index(ctx, r.UserID, r.DomainName, ttl)
			return &r, nil
		}

		res, err := refreshScript.Run(ctx, s.client, []string{key}, r.UserID, ttl.Milliseconds()).Int()
		if err != nil {
			return nil, fmt.Errorf("refresh reservation %s: %w", r.DomainName, err)
		}
		switch res {
		case 1:
			cur, err := s.Get(ctx, r.DomainName, now)
			if err != nil {
				return nil, err
			}
			s.index(ctx, r.UserID, r.DomainName, ttl)
			return cur, nil
		case 0:
			cur, err := s.Get(ctx, r.DomainName, now)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, err
			}
			return cur, sentinel.ErrConflict
		}
		// -1: the key expired between SETNX and the refresh; try once more.
	}
	return nil, sentinel.ErrConflict
}

func (s *RedisStore) index(ctx context.Context, userID, domain string, ttl time.Duration) {
	setKey := userSetKeyPrefix + userID
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, setKey, domain)
	pipe.PExpire(ctx, setKey, ttl)
	// The index is best effort; stale members are skipped by the compare-delete.
	_, _ = pipe.Exec(ctx)
}

func (s *RedisStore) Get(ctx context.Context, domain string, now time.Time) (*models.Reservation, error) {
	defer observe("get", time.Now())

	key := reservationKeyPrefix + domain
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reservation %s: %w", domain, err)
	}

	raw, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %s: %w", domain, err)
	}
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return nil, sentinel.ErrNotFound
	}

	userID, createdAt, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decode reservation %s: %w", domain, err)
	}
	return &models.Reservation{
		DomainName: domain,
		UserID:     userID,
		CreatedAt:  createdAt,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, domain, userID string) (bool, error) {
	defer observe("delete", time.Now())

	n, err := releaseScript.Run(ctx, s.client, []string{reservationKeyPrefix + domain}, userID).Int()
	if err != nil {
		return false, fmt.Errorf("release reservation %s: %w", domain, err)
	}
	_ = s.client.SRem(ctx, userSetKeyPrefix+userID, domain).Err()
	return n == 1, nil
}

func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID string, _ time.Time) (int, error) {
	defer observe("delete_all", time.Now())

	setKey := userSetKeyPrefix + userID
	domains, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list reservations for %s: %w", userID, err)
	}

	released := 0
	for _, domain := range domains {
		n, err := releaseScript.Run(ctx, s.client, []string{reservationKeyPrefix + domain}, userID).Int()
		if err != nil {
			return released, fmt.Errorf("release reservation %s: %w", domain, err)
		}
		released += n
	}
	if err := s.client.Del(ctx, setKey).Err(); err != nil {
		return released, fmt.Errorf("clear reservation index for %s: %w", userID, err)
	}
	return released, nil
}

func encodeValue(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%s|%d", userID, createdAt.UnixMilli())
}

func decodeValue(raw string) (string, time.Time, error) {
	var (
		userID string
		millis int64
	)
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == '|' {
			userID = raw[:i]
			if _, err := fmt.Sscanf(raw[i+1:], "%d", &millis); err != nil {
				return "", time.Time{}, err
			}
			return userID, time.UnixMilli(millis).UTC(), nil
		}
	}
	return "", time.Time{}, fmt.Errorf("malformed value %q", raw)
}
