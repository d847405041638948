// Package worker runs background reconciliation so operations left mid-flight
// move forward without the wallet owner returning.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"namecart/internal/fulfillment/models"
)

// Sweeper reconciles every wallet with unfinished operations.
type Sweeper interface {
	Sweep(ctx context.Context) (*models.SweepResult, error)
}

type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScheduler(sweeper Sweeper, opts ...Option) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper is required")
	}
	s := &Scheduler{
		sweeper:  sweeper,
		interval: 30 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps once per interval until ctx is cancelled. A failed sweep is
// logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	res, err := s.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "reconcile sweep failed", "error", err)
		}
		return
	}
	if res.Wallets == 0 {
		return
	}
	s.logger.InfoContext(ctx, "reconcile sweep finished",
		"wallets", res.Wallets,
		"failures", res.Failures,
		"duration", time.Since(start),
	)
}
