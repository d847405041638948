package registrar

import "fmt"

// Status is the registrar's vocabulary for domains and operations.
type Status string

const (
	StatusAvailable  Status = "AVAILABLE"
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusQueued     Status = "QUEUED"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusProcessing, StatusQueued, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// InFlight reports whether an operation may still change status.
func (s Status) InFlight() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusQueued
}

// OwnerType says who holds a domain from the registrar's point of view.
// ME is this service's registrar account.
type OwnerType string

const (
	OwnerNone OwnerType = "NONE"
	OwnerMe   OwnerType = "ME"
	OwnerUser OwnerType = "USER"
)

func (o OwnerType) IsValid() bool {
	return o == OwnerNone || o == OwnerMe || o == OwnerUser
}

type Owner struct {
	Type    OwnerType `json:"type"`
	Address string    `json:"address,omitempty"`
}

// Operation is an asynchronous registrar action (register, transfer, return).
type Operation struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Domain string `json:"domain"`
}

func (o Operation) validate() error {
	if o.ID == "" {
		return fmt.Errorf("operation id is empty")
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("unknown operation status %q", o.Status)
	}
	return nil
}

type DomainRecord struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Owner  Owner  `json:"owner"`
}

// Registrable reports whether a register action should be issued for the domain.
func (d DomainRecord) Registrable() bool {
	return d.Status == StatusAvailable || d.Owner.Type == OwnerNone || d.Owner.Type == ""
}

func (d DomainRecord) validate() error {
	if d.Status != "" && !d.Status.IsValid() {
		return fmt.Errorf("unknown domain status %q", d.Status)
	}
	if d.Owner.Type != "" && !d.Owner.Type.IsValid() {
		return fmt.Errorf("unknown owner type %q", d.Owner.Type)
	}
	return nil
}

type operationEnvelope struct {
	Operation *Operation `json:"operation"`
}

type registerRequest struct {
	Name string `json:"name"`
}

type transferRequest struct {
	Owner Owner `json:"owner"`
}
