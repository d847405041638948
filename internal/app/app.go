// Package app assembles the fulfillment stack from configuration. The HTTP
// server and the operator CLI share it so both run against the same stores.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"

	"namecart/internal/events"
	"namecart/internal/fulfillment/debounce"
	"namecart/internal/fulfillment/ports"
	fulfillmentsvc "namecart/internal/fulfillment/service"
	"namecart/internal/fulfillment/store"
	"namecart/internal/fulfillment/worker"
	"namecart/internal/payment"
	"namecart/internal/platform/config"
	"namecart/internal/platform/kafka"
	"namecart/internal/platform/metrics"
	"namecart/internal/platform/postgres"
	"namecart/internal/platform/redis"
	"namecart/internal/ratelimit"
	"namecart/internal/registrar"
	reservationsvc "namecart/internal/reservation/service"
	reservationstore "namecart/internal/reservation/store"
	"namecart/pkg/platform/circuit"
	"namecart/pkg/platform/lock"
)

type App struct {
	Config       config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Fulfillment  *fulfillmentsvc.Service
	Reservations *reservationsvc.Service
	Scheduler    *worker.Scheduler
	// Relay is nil when no Kafka brokers are configured.
	Relay *events.Relay
	// RateLimits is nil when rate limiting is disabled.
	RateLimits ratelimit.Store

	pool  *pgxpool.Pool
	redis *redis.Client
	kafka *kgo.Client
}

// Build connects the configured backends. Postgres, Redis and Kafka are each
// optional; without them the matching in-memory implementation is used.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(reg)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.pool, err = postgres.New(ctx, cfg.Postgres); err != nil {
		return nil, err
	}
	if a.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if a.kafka, err = kafka.New(ctx, cfg.Kafka); err != nil {
		return nil, err
	}

	var (
		locker  ports.Locker         = lock.NewInMemoryLocker()
		tracker ports.Debouncer      = debounce.NewInMemoryTracker()
		holds   reservationsvc.Store = reservationstore.NewInMemoryStore()
		limits  ratelimit.Store      = ratelimit.NewInMemoryStore()
	)
	relayEnabled := a.kafka != nil
	ops, outbox := operationStore(a.pool, relayEnabled)
	if a.pool != nil {
		logger.Info("using postgres operation store")
	} else {
		logger.Warn("DATABASE_URL not set, operations are kept in memory")
	}
	if !relayEnabled {
		logger.Info("KAFKA_BROKERS not set, fulfillment change events are not recorded")
	}
	if a.redis != nil {
		locker = lock.NewRedisLocker(a.redis.Client)
		tracker = debounce.NewRedisTracker(a.redis.Client, 10*cfg.Reconcile.MinInterval)
		holds = reservationstore.NewRedisStore(a.redis.Client)
		limits = ratelimit.NewRedisStore(a.redis.Client)
		logger.Info("using redis for reservations, locks, rate limits and reconcile debounce")
	}
	if cfg.RateLimit.Requests > 0 {
		a.RateLimits = limits
	}

	breaker := circuit.New("registrar",
		circuit.WithFailureThreshold(cfg.Registrar.FailureThreshold),
		circuit.WithCooldown(cfg.Registrar.Cooldown),
	)
	registrarClient, err := registrar.New(registrar.Config{
		BaseURL: cfg.Registrar.BaseURL,
		APIKey:  cfg.Registrar.APIKey,
		Timeout: cfg.Registrar.Timeout,
	},
		registrar.WithBreaker(breaker),
		registrar.WithLatencyObserver(a.Metrics),
		registrar.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if a.Reservations, err = reservationsvc.New(holds,
		reservationsvc.WithLogger(logger),
		reservationsvc.WithTTL(cfg.Reservation.TTL),
		reservationsvc.WithMetrics(a.Metrics),
	); err != nil {
		return nil, err
	}

	opts := []fulfillmentsvc.Option{
		fulfillmentsvc.WithLogger(logger),
		fulfillmentsvc.WithMetrics(a.Metrics),
		fulfillmentsvc.WithReservations(a.Reservations),
		fulfillmentsvc.WithLocker(locker),
		fulfillmentsvc.WithDebouncer(tracker),
		fulfillmentsvc.WithTracer(otel.Tracer("namecart/fulfillment")),
		fulfillmentsvc.WithCheckoutConcurrency(cfg.Checkout.Concurrency),
		fulfillmentsvc.WithTransferPolicy(cfg.Transfer.PropagationDelay, cfg.Transfer.MaxAttempts, cfg.Transfer.BaseBackoff),
		fulfillmentsvc.WithReconcileInterval(cfg.Reconcile.MinInterval),
		fulfillmentsvc.WithLockTTL(cfg.Reconcile.LockTTL),
		fulfillmentsvc.WithSweepLimit(cfg.Reconcile.SweepLimit),
	}
	if cfg.Payment.SecretKey != "" {
		payments, err := payment.New(payment.Config{
			BaseURL:   cfg.Payment.BaseURL,
			SecretKey: cfg.Payment.SecretKey,
			Timeout:   cfg.Payment.Timeout,
		}, payment.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, fulfillmentsvc.WithPayments(payments))
	} else {
		logger.Warn("PAYMENT_SECRET_KEY not set, failed mints will not be refunded")
	}
	if a.Fulfillment, err = fulfillmentsvc.New(registrarClient, ops, opts...); err != nil {
		return nil, err
	}

	if a.Scheduler, err = worker.NewScheduler(a.Fulfillment,
		worker.WithInterval(cfg.Reconcile.ScheduleInterval),
		worker.WithLogger(logger),
	); err != nil {
		return nil, err
	}

	if relayEnabled {
		if a.Relay, err = events.NewRelay(outbox, a.kafka, cfg.Kafka.Topic,
			events.WithRelayLogger(logger),
			events.WithRelayMetrics(a.Metrics),
			events.WithInterval(cfg.Kafka.PollInterval),
			events.WithBatchSize(cfg.Kafka.BatchSize),
		); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// operationStore picks the operation store for the configured backends.
// Change events are only recorded when a relay will drain them; outbox is
// nil otherwise.
func operationStore(pool *pgxpool.Pool, relayEnabled bool) (ports.OperationStore, events.RelayStore) {
	if pool != nil {
		if !relayEnabled {
			return store.NewPostgresStore(pool), nil
		}
		outbox := events.NewPostgresStore(pool)
		return store.NewPostgresStore(pool, store.WithOutbox(outbox)), outbox
	}
	if !relayEnabled {
		return store.NewInMemoryStore(), nil
	}
	outbox := events.NewInMemoryStore()
	return store.NewInMemoryStore(store.WithMemoryOutbox(outbox)), outbox
}

// Health pings the configured backends.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.pool != nil {
		if err := a.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
