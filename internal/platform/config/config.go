package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// PostgresConfig enables the durable operation store and the outbox. Empty
// URL means in-memory stores.
type PostgresConfig struct {
	URL      string
	MaxConns int32
}

// RedisConfig enables shared reservations, locks and debounce state. Empty
// URL means process-local implementations.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the outbox relay. No brokers means events stay in the outbox table.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Partitions   int32
	Replication  int16
	PollInterval time.Duration
	BatchSize    int
}

type RegistrarConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

type PaymentConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type ReservationConfig struct {
	TTL time.Duration
}

type CheckoutConfig struct {
	Concurrency int
}

type TransferConfig struct {
	PropagationDelay time.Duration
	MaxAttempts      int
	BaseBackoff      time.Duration
}

type ReconcileConfig struct {
	MinInterval      time.Duration
	ScheduleInterval time.Duration
	SweepLimit       int
	LockTTL          time.Duration
}

// AuthConfig holds the wallet session key. Empty key is development mode:
// callers name their wallet in the request.
type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
}

// RateLimitConfig caps wallet-facing fulfillment calls per wallet. Zero
// requests disables the limit.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type AdminConfig struct {
	TokenHash string
}

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Registrar   RegistrarConfig
	Payment     PaymentConfig
	Reservation ReservationConfig
	Checkout    CheckoutConfig
	Transfer    TransferConfig
	Reconcile   ReconcileConfig
	RateLimit   RateLimitConfig
	Auth        AuthConfig
	Admin       AdminConfig
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: 15 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
		Postgres: PostgresConfig{
			MaxConns: 10,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:        "namecart.fulfillment",
			Partitions:   3,
			Replication:  1,
			PollInterval: 2 * time.Second,
			BatchSize:    100,
		},
		Registrar: RegistrarConfig{
			BaseURL:          "http://localhost:9000",
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
			Cooldown:         10 * time.Second,
		},
		Payment: PaymentConfig{
			BaseURL: "https://api.stripe.com",
			Timeout: 10 * time.Second,
		},
		Reservation: ReservationConfig{TTL: 15 * time.Minute},
		Checkout:    CheckoutConfig{Concurrency: 1},
		Transfer: TransferConfig{
			PropagationDelay: 3 * time.Second,
			MaxAttempts:      3,
			BaseBackoff:      time.Second,
		},
		Reconcile: ReconcileConfig{
			MinInterval:      5 * time.Second,
			ScheduleInterval: 30 * time.Second,
			SweepLimit:       500,
			LockTTL:          2 * time.Minute,
		},
		RateLimit: RateLimitConfig{Requests: 30, Window: time.Minute},
		Auth:      AuthConfig{JWTIssuer: "namecart"},
	}
}

// FromEnv loads an optional .env file, then overlays NAMECART_* variables on
// the defaults. Variables already set in the environment win over .env.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	var errs []error
	p := parser{errs: &errs}

	cfg.Server.Addr = p.str("NAMECART_ADDR", cfg.Server.Addr)
	cfg.Server.ShutdownTimeout = p.duration("NAMECART_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Log.Level = p.str("NAMECART_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = p.str("NAMECART_LOG_FORMAT", cfg.Log.Format)

	cfg.Postgres.URL = p.str("DATABASE_URL", cfg.Postgres.URL)
	cfg.Postgres.MaxConns = int32(p.int("NAMECART_PG_MAX_CONNS", int(cfg.Postgres.MaxConns)))

	cfg.Redis.URL = p.str("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.PoolSize = p.int("NAMECART_REDIS_POOL_SIZE", cfg.Redis.PoolSize)

	cfg.Kafka.Brokers = p.list("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = p.str("NAMECART_KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.PollInterval = p.duration("NAMECART_OUTBOX_POLL_INTERVAL", cfg.Kafka.PollInterval)

	cfg.Registrar.BaseURL = p.str("REGISTRAR_BASE_URL", cfg.Registrar.BaseURL)
	cfg.Registrar.APIKey = p.str("REGISTRAR_API_KEY", cfg.Registrar.APIKey)
	cfg.Registrar.Timeout = p.duration("REGISTRAR_TIMEOUT", cfg.Registrar.Timeout)
	cfg.Registrar.FailureThreshold = p.int("REGISTRAR_BREAKER_THRESHOLD", cfg.Registrar.FailureThreshold)
	cfg.Registrar.Cooldown = p.duration("REGISTRAR_BREAKER_COOLDOWN", cfg.Registrar.Cooldown)

	cfg.Payment.BaseURL = p.str("PAYMENT_BASE_URL", cfg.Payment.BaseURL)
	cfg.Payment.SecretKey = p.str("PAYMENT_SECRET_KEY", cfg.Payment.SecretKey)
	cfg.Payment.Timeout = p.duration("PAYMENT_TIMEOUT", cfg.Payment.Timeout)

	cfg.Reservation.TTL = p.duration("NAMECART_RESERVATION_TTL", cfg.Reservation.TTL)
	cfg.Checkout.Concurrency = p.int("NAMECART_CHECKOUT_CONCURRENCY", cfg.Checkout.Concurrency)

	cfg.Transfer.PropagationDelay = p.duration("NAMECART_TRANSFER_DELAY", cfg.Transfer.PropagationDelay)
	cfg.Transfer.MaxAttempts = p.int("NAMECART_TRANSFER_MAX_ATTEMPTS", cfg.Transfer.MaxAttempts)
	cfg.Transfer.BaseBackoff = p.duration("NAMECART_TRANSFER_BACKOFF", cfg.Transfer.BaseBackoff)

	cfg.Reconcile.MinInterval = p.duration("NAMECART_RECONCILE_MIN_INTERVAL", cfg.Reconcile.MinInterval)
	cfg.Reconcile.ScheduleInterval = p.duration("NAMECART_RECONCILE_INTERVAL", cfg.Reconcile.ScheduleInterval)
	cfg.Reconcile.SweepLimit = p.int("NAMECART_RECONCILE_SWEEP_LIMIT", cfg.Reconcile.SweepLimit)

	cfg.RateLimit.Requests = p.int("NAMECART_RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = p.duration("NAMECART_RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Auth.JWTSigningKey = p.str("JWT_SIGNING_KEY", cfg.Auth.JWTSigningKey)
	cfg.Auth.JWTIssuer = p.str("JWT_ISSUER", cfg.Auth.JWTIssuer)
	cfg.Admin.TokenHash = p.str("NAMECART_ADMIN_TOKEN_HASH", cfg.Admin.TokenHash)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Registrar.BaseURL == "" {
		errs = append(errs, errors.New("registrar base URL is required"))
	}
	if c.Transfer.MaxAttempts < 1 {
		errs = append(errs, errors.New("transfer max attempts must be at least 1"))
	}
	if c.Checkout.Concurrency < 1 {
		errs = append(errs, errors.New("checkout concurrency must be at least 1"))
	}
	if c.Reservation.TTL <= 0 {
		errs = append(errs, errors.New("reservation TTL must be positive"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.Reconcile.ScheduleInterval <= 0 {
		errs = append(errs, errors.New("reconcile interval must be positive"))
	}
	return errors.Join(errs...)
}

// DevMode reports whether wallet identity is taken from the request instead of a token.
func (c Config) DevMode() bool {
	return c.Auth.JWTSigningKey == ""
}

type parser struct {
	errs *[]error
}

func (p parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p parser) int(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p parser) list(key string, def []string) []string {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
