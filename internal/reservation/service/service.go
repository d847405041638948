// Package service implements checkout-window reservations: exclusive,
// time-boxed holds that stop two wallets from paying for the same domain.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"namecart/internal/reservation/models"
	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/sentinel"
	"namecart/pkg/requestcontext"
)

// Store persists reservations. Acquire returns the current holder together
// with sentinel.ErrConflict when another user holds an active reservation.
type Store interface {
	Acquire(ctx context.Context, r models.Reservation, now time.Time) (*models.Reservation, error)
	Get(ctx context.Context, domain string, now time.Time) (*models.Reservation, error)
	Delete(ctx context.Context, domain, userID string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string, now time.Time) (int, error)
}

// ConflictCounter counts rejected reserve calls.
type ConflictCounter interface {
	IncReservationConflict()
}

type Service struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics ConflictCounter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithMetrics(m ConflictCounter) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("reservation store is required")
	}
	s := &Service{
		store:  store,
		ttl:    models.DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reserve places or refreshes a hold for userID.
func (s *Service) Reserve(ctx context.Context, domainName, userID string) (*models.Reservation, error) {
	name, wallet, err := parse(domainName, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	r := models.Reservation{
		DomainName: name,
		UserID:     wallet,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	held, err := s.store.Acquire(ctx, r, now)
	if errors.Is(err, sentinel.ErrConflict) {
		if s.metrics != nil {
			s.metrics.IncReservationConflict()
		}
		s.logger.InfoContext(ctx, "reservation conflict",
			"domain", name,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, models.ErrAlreadyReserved
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve domain")
	}
	return held, nil
}

// Release drops the caller's hold. Missing or expired holds are a no-op;
// a hold owned by someone else is forbidden.
func (s *Service) Release(ctx context.Context, domainName, userID string) error {
	name, wallet, err := parse(domainName, userID)
	if err != nil {
		return err
	}

	cur, err := s.store.Get(ctx, name, requestcontext.Now(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reservation")
	}
	if cur.UserID != wallet {
		return dErrors.New(dErrors.CodeForbidden, "reservation belongs to another wallet")
	}
	if _, err := s.store.Delete(ctx, name, wallet); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release reservation")
	}
	return nil
}

// IsReserved returns whether an active hold exists and who holds it.
func (s *Service) IsReserved(ctx context.Context, domainName string) (bool, string, error) {
	name, err := domain.ParseDomainName(domainName)
	if err != nil {
		return false, "", err
	}
	cur, err := s.store.Get(ctx, name.String(), requestcontext.Now(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reservation")
	}
	return true, cur.UserID, nil
}

// ReleaseAll clears every hold of the user (cart clear).
func (s *Service) ReleaseAll(ctx context.Context, userID string) (int, error) {
	wallet, err := domain.ParseWalletAddress(userID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteAllForUser(ctx, wallet.String(), requestcontext.Now(ctx))
	if err != nil {
		return n, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear reservations")
	}
	return n, nil
}

func parse(domainName, userID string) (string, string, error) {
	name, err := domain.ParseDomainName(domainName)
	if err != nil {
		return "", "", err
	}
	wallet, err := domain.ParseWalletAddress(userID)
	if err != nil {
		return "", "", err
	}
	return name.String(), wallet.String(), nil
}
