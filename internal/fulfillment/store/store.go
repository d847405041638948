// Package store persists fulfillment DomainOperations.
package store

import (
	"context"
	"fmt"
	"time"

	"namecart/internal/events"
	"namecart/internal/fulfillment/models"
	"namecart/pkg/platform/sentinel"
)

// Outbox receives one event per material change. Postgres stores call it
// inside the write transaction.
type Outbox interface {
	Append(ctx context.Context, e events.Event) error
}

type changePayload struct {
	DomainName    string                 `json:"domain_name"`
	WalletAddress string                 `json:"wallet_address"`
	OperationID   string                 `json:"operation_id"`
	Status        models.OperationStatus `json:"status"`
	PrevStatus    models.OperationStatus `json:"prev_status,omitempty"`
	NeedsTransfer bool                   `json:"needs_transfer"`
	RefundStatus  *string                `json:"refund_status,omitempty"`
	Version       int64                  `json:"version"`
}

// changeEvent classifies a write. ok is false when nothing observable changed.
func changeEvent(prev *models.DomainOperation, next models.DomainOperation, at time.Time) (events.Event, bool, error) {
	var eventType string
	switch {
	case prev == nil:
		eventType = events.TypeOperationRecorded
	case next.Status == models.StatusFailedHandled && prev.Status != models.StatusFailedHandled:
		eventType = events.TypeCompensated
	case prev.NeedsTransfer && !next.NeedsTransfer:
		eventType = events.TypeTransferIssued
	case prev.Status != next.Status || prev.OperationID != next.OperationID:
		eventType = events.TypeStatusChanged
	default:
		return events.Event{}, false, nil
	}

	payload := changePayload{
		DomainName:    next.DomainName,
		WalletAddress: next.WalletAddress,
		OperationID:   next.OperationID,
		Status:        next.Status,
		NeedsTransfer: next.NeedsTransfer,
		RefundStatus:  next.RefundStatus,
		Version:       next.Version,
	}
	if prev != nil {
		payload.PrevStatus = prev.Status
	}
	e, err := events.New(eventType, next.Key().String(), payload, at)
	if err != nil {
		return events.Event{}, false, fmt.Errorf("build %s event: %w", eventType, err)
	}
	return e, true, nil
}

// prepare validates fn's output against the current record and stamps
// version and timestamps.
func prepare(key models.Key, current, next *models.DomainOperation, now time.Time) error {
	if next.DomainName != key.Domain || next.WalletAddress != key.Wallet {
		return fmt.Errorf("record %s written under key %s: %w", next.Key(), key, sentinel.ErrInvalidState)
	}
	if !next.Status.IsValid() {
		return fmt.Errorf("unknown status %q: %w", next.Status, sentinel.ErrInvalidState)
	}
	if current != nil && current.Status == models.StatusFailedHandled && next.Status != models.StatusFailedHandled &&
		(next.OperationID == "" || next.OperationID == current.OperationID) {
		// only a new registrar action may replace a compensated record
		return fmt.Errorf("%s is FAILED_HANDLED: %w", key, sentinel.ErrInvalidState)
	}

	if current == nil {
		next.Version = 1
		if next.CreatedAt.IsZero() {
			next.CreatedAt = now
		}
	} else {
		next.Version = current.Version + 1
		next.CreatedAt = current.CreatedAt
	}
	next.LastUpdated = now
	return nil
}
