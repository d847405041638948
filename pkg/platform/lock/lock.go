// Package lock provides short-lived, owner-tokened mutual exclusion keyed by
// string. Locks expire on their own so a crashed holder cannot wedge a key.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"namecart/pkg/platform/sentinel"
)

// Locker acquires named locks. TryAcquire never blocks: a held key yields
// sentinel.ErrNotAcquired.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
}

// Lease is a held lock. Release is safe to call more than once and only
// removes the lock if this lease still owns it.
type Lease struct {
	key     string
	token   string
	release func(ctx context.Context, key, token string) error
	once    sync.Once
}

func (l *Lease) Key() string { return l.key }

func (l *Lease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() { err = l.release(ctx, l.key, l.token) })
	return err
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryLocker is a process-local Locker.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
	now   func() time.Time
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{locks: make(map[string]memoryEntry), now: time.Now}
}

func (m *InMemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.locks[key]; ok && now.Before(e.expiresAt) {
		return nil, sentinel.ErrNotAcquired
	}
	token := uuid.NewString()
	m.locks[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return &Lease{key: key, token: token, release: m.release}, nil
}

func (m *InMemoryLocker) release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.locks[key]; ok && e.token == token {
		delete(m.locks, key)
	}
	return nil
}
