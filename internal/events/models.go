// Package events records fulfillment state changes in an outbox and relays
// them to Kafka, giving downstream consumers (status UI, support tooling)
// an ordered per-domain feed without coupling them to the operation store.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeOperationRecorded = "fulfillment.operation.recorded"
	TypeTransferIssued    = "fulfillment.transfer.issued"
	TypeCompensated       = "fulfillment.operation.compensated"
	TypeStatusChanged     = "fulfillment.operation.status_changed"
)

// Event is one outbox row. Key is the Kafka partition key, so events for the
// same (domain, wallet) stay ordered.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Key         string          `json:"key"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	Attempts    int             `json:"attempts"`
}

// New builds an event with a fresh id, marshalling payload as JSON.
func New(eventType, key string, payload any, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Key:       key,
		Payload:   raw,
		CreatedAt: at,
	}, nil
}
