package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/ports"
	"namecart/pkg/platform/sentinel"
)

// InMemoryStore is the development OperationStore. One mutex serialises all
// writes, which also makes Update atomic per key.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[models.Key]models.DomainOperation
	outbox  Outbox
	now     func() time.Time
}

type MemoryOption func(*InMemoryStore)

// WithMemoryOutbox publishes change events to o after each write.
func WithMemoryOutbox(o Outbox) MemoryOption {
	return func(s *InMemoryStore) { s.outbox = o }
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[models.Key]models.DomainOperation),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, key models.Key) (*models.DomainOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *InMemoryStore) Update(ctx context.Context, key models.Key, fn ports.MutateFunc) (*models.DomainOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *models.DomainOperation
	if rec, ok := s.records[key]; ok {
		current = &rec
	}

	var arg *models.DomainOperation
	if current != nil {
		cp := *current
		arg = &cp
	}
	next, err := fn(arg)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	now := s.now()
	if err := prepare(key, current, next, now); err != nil {
		return nil, err
	}

	if s.outbox != nil {
		e, ok, err := changeEvent(current, *next, now)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := s.outbox.Append(ctx, e); err != nil {
				return nil, err
			}
		}
	}
	s.records[key] = *next
	out := *next
	return &out, nil
}

func (s *InMemoryStore) ListByWallet(_ context.Context, wallet string) ([]models.DomainOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DomainOperation, 0)
	for key, rec := range s.records {
		if key.Wallet == wallet {
			out = append(out, rec)
		}
	}
	sortOperations(out)
	return out, nil
}

// FindByOperationID returns the most recently updated record carrying id.
func (s *InMemoryStore) FindByOperationID(_ context.Context, operationID string) (*models.DomainOperation, error) {
	if operationID == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.DomainOperation
	for _, rec := range s.records {
		if rec.OperationID != operationID {
			continue
		}
		if found == nil || rec.LastUpdated.After(found.LastUpdated) {
			r := rec
			found = &r
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found, nil
}

func (s *InMemoryStore) ListPendingWallets(_ context.Context, after string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for key, rec := range s.records {
		if key.Wallet > after && rec.NeedsReconcile() {
			seen[key.Wallet] = struct{}{}
		}
	}
	wallets := make([]string, 0, len(seen))
	for w := range seen {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	if limit > 0 && len(wallets) > limit {
		wallets = wallets[:limit]
	}
	return wallets, nil
}

func sortOperations(ops []models.DomainOperation) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.Before(ops[j].CreatedAt)
		}
		return ops[i].DomainName < ops[j].DomainName
	})
}
