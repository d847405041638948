// Package ports declares what the fulfillment service needs from the outside:
// the registrar, the payment processor, reservations, locking, debouncing and
// the operation store.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"namecart/internal/fulfillment/models"
	"namecart/internal/payment"
	"namecart/internal/registrar"
	"namecart/pkg/platform/lock"
)

// Registrar is implemented by *registrar.Client.
type Registrar interface {
	GetDomain(ctx context.Context, name string) (*registrar.DomainRecord, error)
	Register(ctx context.Context, name string) (*registrar.Operation, error)
	Transfer(ctx context.Context, name, wallet string) (*registrar.Operation, error)
	Return(ctx context.Context, name string) (*registrar.Operation, error)
	GetOperation(ctx context.Context, id string) (*registrar.Operation, error)
}

// PaymentGateway is implemented by *payment.Client.
type PaymentGateway interface {
	GetPayment(ctx context.Context, reference string) (*payment.Payment, error)
	CreateRefund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error)
}

// Reservations is implemented by the reservation service.
type Reservations interface {
	IsReserved(ctx context.Context, domainName string) (bool, string, error)
	Release(ctx context.Context, domainName, userID string) error
}

// Locker is implemented by lock.InMemoryLocker and lock.RedisLocker.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (*lock.Lease, error)
}

// Debouncer remembers when a wallet was last reconciled.
type Debouncer interface {
	LastCompleted(ctx context.Context, wallet string) (time.Time, bool, error)
	MarkCompleted(ctx context.Context, wallet string, at time.Time) error
}

// MutateFunc receives the current record (nil if none) and returns the record
// to write, or nil to leave the store untouched.
type MutateFunc func(current *models.DomainOperation) (*models.DomainOperation, error)

// OperationStore persists DomainOperations. Get and FindByOperationID return
// sentinel.ErrNotFound for missing records; Update returns
// sentinel.ErrInvalidState when fn tries to leave FAILED_HANDLED.
type OperationStore interface {
	Get(ctx context.Context, key models.Key) (*models.DomainOperation, error)
	Update(ctx context.Context, key models.Key, fn MutateFunc) (*models.DomainOperation, error)
	ListByWallet(ctx context.Context, wallet string) ([]models.DomainOperation, error)
	FindByOperationID(ctx context.Context, operationID string) (*models.DomainOperation, error)
	// ListPendingWallets returns wallets with unfinished operations whose
	// address sorts after the given one, in address order.
	ListPendingWallets(ctx context.Context, after string, limit int) ([]string, error)
}

// Metrics is implemented by *metrics.Metrics.
type Metrics interface {
	IncCheckoutDomain(code string)
	IncTransferAttempt(outcome string)
	IncCompensation(outcome string)
	IncReconcile(outcome string)
	IncStoreWriteFailure(stage string)
}
