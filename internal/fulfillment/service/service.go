// Package service drives the domain purchase saga: checkout, transfer to the
// buyer's wallet, compensation of failed registrations, and reconciliation of
// stored state against the registrar.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"namecart/internal/fulfillment/debounce"
	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/ports"
	"namecart/pkg/platform/lock"
)

const (
	defaultPropagationDelay  = 3 * time.Second
	defaultMaxAttempts       = 3
	defaultRetryBase         = time.Second
	defaultReconcileInterval = 5 * time.Second
	defaultLockTTL           = 2 * time.Minute
	defaultSweepLimit        = 500
)

// Service is the fulfillment saga driver. Registrar and store are required;
// payments and reservations are optional and their steps are skipped (with a
// log line) when absent.
type Service struct {
	registrar    ports.Registrar
	store        ports.OperationStore
	payments     ports.PaymentGateway
	reservations ports.Reservations
	locker       ports.Locker
	debouncer    ports.Debouncer
	metrics      ports.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer

	checkoutConcurrency int
	propagationDelay    time.Duration
	maxAttempts         int
	retryBase           time.Duration
	reconcileInterval   time.Duration
	lockTTL             time.Duration
	sweepLimit          int
	sleep               func(ctx context.Context, d time.Duration) error

	reconciles singleflight.Group

	sweepMu     sync.Mutex
	sweepCursor string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m ports.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithPayments(p ports.PaymentGateway) Option {
	return func(s *Service) { s.payments = p }
}

func WithReservations(r ports.Reservations) Option {
	return func(s *Service) { s.reservations = r }
}

func WithLocker(l ports.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithDebouncer(d ports.Debouncer) Option {
	return func(s *Service) {
		if d != nil {
			s.debouncer = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCheckoutConcurrency bounds how many domains of one batch run at once.
func WithCheckoutConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.checkoutConcurrency = n
		}
	}
}

// WithTransferPolicy sets the propagation delay and the retry schedule.
// Zero values keep the defaults.
func WithTransferPolicy(delay time.Duration, maxAttempts int, retryBase time.Duration) Option {
	return func(s *Service) {
		if delay > 0 {
			s.propagationDelay = delay
		}
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if retryBase > 0 {
			s.retryBase = retryBase
		}
	}
}

// WithSleep replaces the context-aware wait used for propagation delay and
// backoff.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithReconcileInterval is the minimum gap between two passes for one wallet.
func WithReconcileInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.reconcileInterval = d
		}
	}
}

func WithLockTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

func WithSweepLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepLimit = n
		}
	}
}

func New(registrar ports.Registrar, store ports.OperationStore, opts ...Option) (*Service, error) {
	if registrar == nil {
		return nil, errors.New("registrar client is required")
	}
	if store == nil {
		return nil, errors.New("operation store is required")
	}
	s := &Service{
		registrar:           registrar,
		store:               store,
		locker:              lock.NewInMemoryLocker(),
		debouncer:           debounce.NewInMemoryTracker(),
		metrics:             noopMetrics{},
		logger:              slog.Default(),
		tracer:              otel.Tracer("namecart/fulfillment"),
		checkoutConcurrency: 1,
		propagationDelay:    defaultPropagationDelay,
		maxAttempts:         defaultMaxAttempts,
		retryBase:           defaultRetryBase,
		reconcileInterval:   defaultReconcileInterval,
		lockTTL:             defaultLockTTL,
		sweepLimit:          defaultSweepLimit,
		sleep:               sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// record applies mutate to the stored record (or a fresh one) under the
// store's per-key lock. Failures are logged and counted, never returned: the
// registrar stays authoritative and the next reconciliation pass repairs the
// record.
func (s *Service) record(ctx context.Context, key models.Key, stage string, mutate func(next *models.DomainOperation)) *models.DomainOperation {
	rec, err := s.store.Update(ctx, key, func(current *models.DomainOperation) (*models.DomainOperation, error) {
		next := models.DomainOperation{DomainName: key.Domain, WalletAddress: key.Wallet}
		if current != nil {
			next = *current
		}
		mutate(&next)
		return &next, nil
	})
	if err != nil {
		s.metrics.IncStoreWriteFailure(stage)
		s.logger.ErrorContext(ctx, "failed to persist domain operation",
			"stage", stage,
			"domain", key.Domain,
			"wallet", key.Wallet,
			"error", err,
		)
		return nil
	}
	return rec
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type noopMetrics struct{}

func (noopMetrics) IncCheckoutDomain(string)    {}
func (noopMetrics) IncTransferAttempt(string)   {}
func (noopMetrics) IncCompensation(string)      {}
func (noopMetrics) IncReconcile(string)         {}
func (noopMetrics) IncStoreWriteFailure(string) {}
