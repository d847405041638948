package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"namecart/internal/fulfillment/mocks"
	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/store"
	"namecart/internal/registrar"
	"namecart/pkg/platform/lock"
	"namecart/pkg/platform/sentinel"
	"namecart/pkg/requestcontext"
)

const (
	wallet      = "0x52908400098527886e0f7030069857d2e4169ee7"
	otherWallet = "0x00000000000000000000000000000000000a11ce"
)

type FulfillmentSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	registrar *mocks.MockRegistrar
	payments  *mocks.MockPaymentGateway
	store     *store.InMemoryStore
	locker    *lock.InMemoryLocker
	service   *Service
	ctx       context.Context
	now       time.Time

	mu     sync.Mutex
	sleeps []time.Duration
}

func TestFulfillmentSuite(t *testing.T) {
	suite.Run(t, new(FulfillmentSuite))
}

func (s *FulfillmentSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registrar = mocks.NewMockRegistrar(s.ctrl)
	s.payments = mocks.NewMockPaymentGateway(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.locker = lock.NewInMemoryLocker()
	s.sleeps = nil
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.service = s.newService()
}

func (s *FulfillmentSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *FulfillmentSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPayments(s.payments),
		WithLocker(s.locker),
		WithSleep(func(_ context.Context, d time.Duration) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.sleeps = append(s.sleeps, d)
			return nil
		}),
	}
	svc, err := New(s.registrar, s.store, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func (s *FulfillmentSuite) seed(domain string, status models.OperationStatus, opID string, needsTransfer bool, paymentRef string) {
	key := models.Key{Domain: domain, Wallet: wallet}
	_, err := s.store.Update(context.Background(), key, func(*models.DomainOperation) (*models.DomainOperation, error) {
		return &models.DomainOperation{
			DomainName:       domain,
			WalletAddress:    wallet,
			OperationID:      opID,
			Status:           status,
			NeedsTransfer:    needsTransfer,
			PaymentReference: paymentRef,
		}, nil
	})
	s.Require().NoError(err)
}

func (s *FulfillmentSuite) stored(domain string) *models.DomainOperation {
	rec, err := s.store.Get(context.Background(), models.Key{Domain: domain, Wallet: wallet})
	s.Require().NoError(err)
	return rec
}

func (s *FulfillmentSuite) assertNotStored(domain string) {
	_, err := s.store.Get(context.Background(), models.Key{Domain: domain, Wallet: wallet})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func operation(id string, status registrar.Status) *registrar.Operation {
	return &registrar.Operation{ID: id, Status: status}
}

func ownedBy(name string, owner registrar.OwnerType) *registrar.DomainRecord {
	status := registrar.StatusCompleted
	if owner == registrar.OwnerNone {
		status = registrar.StatusAvailable
	}
	return &registrar.DomainRecord{Name: name, Status: status, Owner: registrar.Owner{Type: owner}}
}

func notFound() error {
	return &registrar.Error{Category: registrar.CategoryNotFound, StatusCode: 404}
}

func transient() error {
	return &registrar.Error{Category: registrar.CategoryTransient, StatusCode: 503, Message: "upstream unavailable"}
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := New(nil, store.NewInMemoryStore())
	assert.EqualError(t, err, "registrar client is required")

	_, err = New(mocks.NewMockRegistrar(ctrl), nil)
	assert.EqualError(t, err, "operation store is required")
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleepContext(context.Background(), 0))
}
