package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, locks, and clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: optimistic version or uniqueness check failed
//   - ErrExpired: reservation or lease has expired
//   - ErrInvalidState: write would leave a terminal state
//   - ErrUnavailable: dependency temporarily unavailable
//   - ErrNotAcquired: a lock is held by someone else
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrNotAcquired  = errors.New("lock not acquired")
)
