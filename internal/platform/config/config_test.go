package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Reservation.TTL)
	assert.Equal(t, 3*time.Second, cfg.Transfer.PropagationDelay)
	assert.Equal(t, 3, cfg.Transfer.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Transfer.BaseBackoff)
	assert.Equal(t, 5*time.Second, cfg.Reconcile.MinInterval)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.ScheduleInterval)
	assert.Equal(t, 1, cfg.Checkout.Concurrency)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.True(t, cfg.DevMode())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NAMECART_TRANSFER_DELAY", "250ms")
	t.Setenv("NAMECART_CHECKOUT_CONCURRENCY", "4")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_SIGNING_KEY", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Transfer.PropagationDelay)
	assert.Equal(t, 4, cfg.Checkout.Concurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.DevMode())
}

func TestFromEnv_RejectsMalformedValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NAMECART_TRANSFER_MAX_ATTEMPTS", "three")
	t.Setenv("NAMECART_CHECKOUT_CONCURRENCY", "0")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NAMECART_TRANSFER_MAX_ATTEMPTS")
	assert.Contains(t, err.Error(), "checkout concurrency")
}

func TestValidate_RateLimitWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Window = 0
	require.Error(t, cfg.Validate())

	cfg.RateLimit.Requests = 0
	require.NoError(t, cfg.Validate())
}
