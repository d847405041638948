package store

import (
	"context"
	"sync"
	"time"

	"namecart/internal/reservation/models"
	"namecart/pkg/platform/sentinel"
)

// InMemoryStore keeps reservations in a map. Expired entries are treated as
// absent on read and overwritten on the next acquire.
type InMemoryStore struct {
	mu           sync.Mutex
	reservations map[string]models.Reservation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reservations: make(map[string]models.Reservation)}
}

func (s *InMemoryStore) Acquire(_ context.Context, r models.Reservation, now time.Time) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.reservations[r.DomainName]; ok && cur.ActiveAt(now) {
		if cur.UserID != r.UserID {
			return &cur, sentinel.ErrConflict
		}
		r.CreatedAt = cur.CreatedAt
	}
	s.reservations[r.DomainName] = r
	return &r, nil
}

func (s *InMemoryStore) Get(_ context.Context, domain string, now time.Time) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.reservations[domain]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !cur.ActiveAt(now) {
		delete(s.reservations, domain)
		return nil, sentinel.ErrNotFound
	}
	return &cur, nil
}

func (s *InMemoryStore) Delete(_ context.Context, domain, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.reservations[domain]
	if !ok || cur.UserID != userID {
		return false, nil
	}
	delete(s.reservations, domain)
	return true, nil
}

func (s *InMemoryStore) DeleteAllForUser(_ context.Context, userID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := 0
	for domain, cur := range s.reservations {
		if cur.UserID != userID {
			continue
		}
		if cur.ActiveAt(now) {
			released++
		}
		delete(s.reservations, domain)
	}
	return released, nil
}
