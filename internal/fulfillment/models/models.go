// Package models holds the fulfillment saga's records and result types.
package models

import (
	"time"

	"namecart/internal/payment"
	"namecart/internal/registrar"
)

// OperationStatus mirrors the registrar status of the latest action, plus
// FAILED_HANDLED once compensation ran.
type OperationStatus string

const (
	StatusPending       OperationStatus = "PENDING"
	StatusProcessing    OperationStatus = "PROCESSING"
	StatusQueued        OperationStatus = "QUEUED"
	StatusCompleted     OperationStatus = "COMPLETED"
	StatusFailed        OperationStatus = "FAILED"
	StatusFailedHandled OperationStatus = "FAILED_HANDLED"
)

// FromRegistrar maps a registrar operation status. AVAILABLE is not an
// operation status and maps to PENDING.
func FromRegistrar(s registrar.Status) OperationStatus {
	switch s {
	case registrar.StatusProcessing:
		return StatusProcessing
	case registrar.StatusQueued:
		return StatusQueued
	case registrar.StatusCompleted:
		return StatusCompleted
	case registrar.StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

func (s OperationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusQueued, StatusCompleted, StatusFailed, StatusFailedHandled:
		return true
	}
	return false
}

// InFlight reports whether the registrar may still move the operation.
func (s OperationStatus) InFlight() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusQueued
}

// Key identifies a DomainOperation.
type Key struct {
	Domain string
	Wallet string
}

func (k Key) String() string { return k.Domain + "|" + k.Wallet }

// DomainOperation is the per-(domain, wallet) fulfillment record. Records are
// never deleted.
type DomainOperation struct {
	DomainName       string          `json:"domain_name"`
	WalletAddress    string          `json:"wallet_address"`
	OperationID      string          `json:"operation_id"`
	Status           OperationStatus `json:"status"`
	NeedsTransfer    bool            `json:"needs_transfer"`
	RefundStatus     *string         `json:"refund_status,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	LastUpdated      time.Time       `json:"last_updated"`
}

func (o DomainOperation) Key() Key {
	return Key{Domain: o.DomainName, Wallet: o.WalletAddress}
}

// NeedsReconcile reports whether a reconciliation pass has work for the record.
func (o DomainOperation) NeedsReconcile() bool {
	switch {
	case o.Status == StatusFailed:
		return true
	case o.Status == StatusCompleted:
		return o.NeedsTransfer
	default:
		return o.Status.InFlight() && o.OperationID != ""
	}
}

type DomainRequest struct {
	DomainName  string `json:"domain_name"`
	OperationID string `json:"operation_id,omitempty"`
}

// ResultCode classifies a per-domain checkout result.
type ResultCode string

const (
	CodeRegistered        ResultCode = "REGISTERED"
	CodeTransferIssued    ResultCode = "TRANSFER_ISSUED"
	CodeInProgress        ResultCode = "IN_PROGRESS"
	CodeReturned          ResultCode = "RETURNED"
	CodeNoAction          ResultCode = "NO_ACTION"
	CodeDomainUnavailable ResultCode = "DOMAIN_UNAVAILABLE"
	CodeDomainReserved    ResultCode = "DOMAIN_RESERVED"
	CodeNotOwned          ResultCode = "NOT_OWNED"
	CodeNotFound          ResultCode = "NOT_FOUND"
	CodeRegistrarError    ResultCode = "REGISTRAR_ERROR"
	CodeInvalidDomain     ResultCode = "INVALID_DOMAIN"
)

type DomainResult struct {
	DomainName    string          `json:"domain_name"`
	Success       bool            `json:"success"`
	OperationID   string          `json:"operation_id,omitempty"`
	Status        OperationStatus `json:"status,omitempty"`
	NeedsTransfer bool            `json:"needs_transfer"`
	Code          ResultCode      `json:"code"`
	Message       string          `json:"message,omitempty"`
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// OutcomeOf aggregates per-domain results. An empty batch is a failure.
func OutcomeOf(results []DomainResult) Outcome {
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	switch {
	case len(results) > 0 && ok == len(results):
		return OutcomeSuccess
	case ok > 0:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

type CheckoutRequest struct {
	Domains          []DomainRequest
	WalletAddress    string
	PaymentConfirmed bool
	PaymentReference string
}

type CheckoutResult struct {
	Success bool           `json:"success"`
	Outcome Outcome        `json:"outcome"`
	Results []DomainResult `json:"results"`
}

// TransferResult reports a transfer attempt. OK=false with a Reason is a
// normal outcome, not an error.
type TransferResult struct {
	OK        bool                 `json:"ok"`
	Operation *registrar.Operation `json:"operation,omitempty"`
	Reason    string               `json:"reason,omitempty"`
}

// Transfer reasons.
const (
	ReasonNotComplete    = "not complete yet"
	ReasonNotOwned       = "not owned by this account"
	ReasonDomainNotFound = "domain not found"
)

type CompensationResult struct {
	DomainReturned bool            `json:"domain_returned"`
	Refund         *payment.Refund `json:"refund,omitempty"`
	Status         string          `json:"status"`
	Skipped        bool            `json:"skipped"`
	Reason         string          `json:"reason,omitempty"`
}

type ReconcileResult struct {
	Wallet     string            `json:"wallet"`
	Skipped    bool              `json:"skipped"`
	Operations []DomainOperation `json:"operations"`
}

// SweepResult summarises one scheduler pass.
type SweepResult struct {
	Wallets  int `json:"wallets"`
	Failures int `json:"failures"`
}
