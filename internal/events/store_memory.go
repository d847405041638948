package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultMemoryCapacity = 10000

// InMemoryStore is the outbox used when Postgres is not configured. Published
// events are dropped, and once capacity is reached the oldest pending event
// makes room for the newest.
type InMemoryStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*Event
	order    []uuid.UUID
	capacity int
	dropped  int
}

type MemoryOption func(*InMemoryStore)

func WithCapacity(n int) MemoryOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		events:   make(map[uuid.UUID]*Event),
		capacity: defaultMemoryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.ID]; !exists {
		for len(s.events) >= s.capacity && len(s.order) > 0 {
			oldest := s.order[0]
			s.order = s.order[1:]
			if _, ok := s.events[oldest]; ok {
				delete(s.events, oldest)
				s.dropped++
			}
		}
		s.order = append(s.order, e.ID)
	}
	cp := e
	s.events[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *InMemoryStore) Claim(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, limit)
	for _, e := range s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkPublished forgets the events; the broker holds them from here on.
func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.events, id)
	}
	s.compact()
	return nil
}

func (s *InMemoryStore) MarkFailed(_ context.Context, id uuid.UUID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		e.Attempts++
	}
	return nil
}

// All returns every pending event, oldest first.
func (s *InMemoryStore) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Dropped counts pending events evicted for capacity.
func (s *InMemoryStore) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// compact trims ids of forgotten events from the eviction queue once it has
// grown to twice the live set.
func (s *InMemoryStore) compact() {
	if len(s.order) <= 2*len(s.events)+64 {
		return
	}
	live := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.events[id]; ok {
			live = append(live, id)
		}
	}
	s.order = live
}
