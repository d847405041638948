package models

import (
	"time"

	dErrors "namecart/pkg/domain-errors"
)

// DefaultTTL is how long a checkout hold lasts without being refreshed.
const DefaultTTL = 15 * time.Minute

// ErrAlreadyReserved is returned when another wallet holds an unexpired reservation.
var ErrAlreadyReserved = dErrors.New(dErrors.CodeConflict, "domain is already reserved")

// Reservation is an exclusive, time-boxed hold on a domain during checkout.
type Reservation struct {
	DomainName string    `json:"domain"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ActiveAt reports whether the hold is still in force at now.
func (r Reservation) ActiveAt(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
