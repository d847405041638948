package service

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"namecart/internal/fulfillment/mocks"
	"namecart/internal/fulfillment/models"
	"namecart/internal/registrar"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/sentinel"
)

func (s *FulfillmentSuite) checkout(paymentConfirmed bool, domains ...models.DomainRequest) *models.CheckoutResult {
	res, err := s.service.Checkout(s.ctx, models.CheckoutRequest{
		Domains:          domains,
		WalletAddress:    wallet,
		PaymentConfirmed: paymentConfirmed,
		PaymentReference: "pi_123",
	})
	s.Require().NoError(err)
	return res
}

func req(name string) models.DomainRequest {
	return models.DomainRequest{DomainName: name}
}

// Registering an available domain stores PENDING with needsTransfer set.
func (s *FulfillmentSuite) TestCheckout_RegistersAvailableDomain() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-1", registrar.StatusPending), nil)

	res := s.checkout(true, req("  Alice.ETH "))

	s.True(res.Success)
	s.Equal(models.OutcomeSuccess, res.Outcome)
	s.Require().Len(res.Results, 1)
	s.Equal(models.CodeRegistered, res.Results[0].Code)
	s.Equal("op-1", res.Results[0].OperationID)
	s.True(res.Results[0].NeedsTransfer)

	rec := s.stored("alice.eth")
	s.Equal(models.StatusPending, rec.Status)
	s.Equal("op-1", rec.OperationID)
	s.True(rec.NeedsTransfer)
	s.Equal("pi_123", rec.PaymentReference)
}

func (s *FulfillmentSuite) TestCheckout_RegistersWhenRegistrarHasNoRecord() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(nil, notFound())
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-1", registrar.StatusQueued), nil)

	res := s.checkout(true, req("alice.eth"))

	s.Equal(models.CodeRegistered, res.Results[0].Code)
	s.Equal(models.StatusQueued, s.stored("alice.eth").Status, "stored status mirrors the registrar")
}

func (s *FulfillmentSuite) TestCheckout_DomainOwnedByOthersIsUnavailable() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerUser), nil)

	res := s.checkout(true, req("alice.eth"))

	s.False(res.Success)
	s.Equal(models.OutcomeFailure, res.Outcome)
	s.Equal(models.CodeDomainUnavailable, res.Results[0].Code)
	s.assertNotStored("alice.eth")
}

func (s *FulfillmentSuite) TestCheckout_RegisterConflictIsUnavailable() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").
		Return(nil, &registrar.Error{Category: registrar.CategoryConflict, StatusCode: 409})

	res := s.checkout(true, req("alice.eth"))

	s.Equal(models.CodeDomainUnavailable, res.Results[0].Code)
	s.assertNotStored("alice.eth")
}

func (s *FulfillmentSuite) TestCheckout_HeldDomainIsTransferredDirectly() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil).Times(2)
	s.registrar.EXPECT().Transfer(gomock.Any(), "alice.eth", wallet).Return(operation("op-2", registrar.StatusPending), nil)

	res := s.checkout(true, req("alice.eth"))

	s.Equal(models.CodeTransferIssued, res.Results[0].Code)
	rec := s.stored("alice.eth")
	s.Equal("op-2", rec.OperationID)
	s.False(rec.NeedsTransfer)
	s.Empty(s.sleeps, "no propagation wait without a fresh registration")
}

func (s *FulfillmentSuite) TestCheckout_ExistingOperationInProgress() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusProcessing), nil)

	res := s.checkout(true, models.DomainRequest{DomainName: "alice.eth", OperationID: "op-1"})

	s.True(res.Success)
	s.Equal(models.CodeInProgress, res.Results[0].Code)
	rec := s.stored("alice.eth")
	s.Equal(models.StatusProcessing, rec.Status)
	s.True(rec.NeedsTransfer)
}

func (s *FulfillmentSuite) TestCheckout_CompletedOperationIsTransferred() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "alice.eth", wallet).Return(operation("op-2", registrar.StatusPending), nil)

	res := s.checkout(true, models.DomainRequest{DomainName: "alice.eth", OperationID: "op-1"})

	s.Equal(models.CodeTransferIssued, res.Results[0].Code)
	rec := s.stored("alice.eth")
	s.Equal("op-2", rec.OperationID)
	s.Equal(models.StatusPending, rec.Status)
	s.False(rec.NeedsTransfer)
	s.Equal(defaultPropagationDelay, s.sleeps[0])
}

func (s *FulfillmentSuite) TestCheckout_CompletedButTransferFailingStaysPending() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "alice.eth", wallet).Return(nil, transient()).Times(defaultMaxAttempts)

	res := s.checkout(true, models.DomainRequest{DomainName: "alice.eth", OperationID: "op-1"})

	s.Equal(models.CodeInProgress, res.Results[0].Code)
	rec := s.stored("alice.eth")
	s.Equal(models.StatusCompleted, rec.Status)
	s.True(rec.NeedsTransfer, "never COMPLETED without needsTransfer unless a transfer was issued")
}

func (s *FulfillmentSuite) TestCheckout_OperationLookupErrorFallsThrough() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "stale").Return(nil, notFound())
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-1", registrar.StatusPending), nil)

	res := s.checkout(true, models.DomainRequest{DomainName: "alice.eth", OperationID: "stale"})

	s.Equal(models.CodeRegistered, res.Results[0].Code)
	s.Equal("op-1", s.stored("alice.eth").OperationID)
}

func (s *FulfillmentSuite) TestCheckout_UsesStoredOperation() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusQueued), nil)

	res := s.checkout(true, req("alice.eth"))

	s.Equal(models.CodeInProgress, res.Results[0].Code)
	s.Equal(models.StatusQueued, s.stored("alice.eth").Status)
}

func (s *FulfillmentSuite) TestCheckout_TransferAlreadyIssued() {
	s.seed("alice.eth", models.StatusPending, "op-2", false, "")

	res := s.checkout(true, models.DomainRequest{DomainName: "alice.eth", OperationID: "op-1"})

	s.True(res.Success)
	s.Equal(models.CodeTransferIssued, res.Results[0].Code)
	s.Equal("op-2", res.Results[0].OperationID)
}

// A compensated saga does not block a fresh paid checkout of the same name.
func (s *FulfillmentSuite) TestCheckout_CompensatedRecordStartsOver() {
	s.seed("alice.eth", models.StatusFailedHandled, "op-old", true, "pi_old")
	refunded := "succeeded"
	_, err := s.store.Update(s.ctx, models.Key{Domain: "alice.eth", Wallet: wallet},
		func(current *models.DomainOperation) (*models.DomainOperation, error) {
			next := *current
			next.RefundStatus = &refunded
			return &next, nil
		})
	s.Require().NoError(err)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-new", registrar.StatusPending), nil)

	res := s.checkout(true, req("alice.eth"))

	s.True(res.Success)
	s.Equal(models.CodeRegistered, res.Results[0].Code)
	rec := s.stored("alice.eth")
	s.Equal(models.StatusPending, rec.Status)
	s.Equal("op-new", rec.OperationID)
	s.True(rec.NeedsTransfer)
	s.Equal("pi_123", rec.PaymentReference)
	s.Nil(rec.RefundStatus)
}

// A transfer that failed is not reported as issued; checkout retries it.
func (s *FulfillmentSuite) TestCheckout_FailedTransferIsRetried() {
	s.seed("alice.eth", models.StatusFailed, "op-t", false, "pi_123")
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil).Times(2)
	s.registrar.EXPECT().Transfer(gomock.Any(), "alice.eth", wallet).Return(operation("op-t2", registrar.StatusPending), nil)

	res := s.checkout(true, req("alice.eth"))

	s.True(res.Success)
	s.Equal(models.CodeTransferIssued, res.Results[0].Code)
	s.Equal("op-t2", res.Results[0].OperationID)
	rec := s.stored("alice.eth")
	s.Equal(models.StatusPending, rec.Status)
	s.Equal("op-t2", rec.OperationID)
}

func (s *FulfillmentSuite) TestCheckout_UnconfirmedPayment() {
	s.Run("held domain is returned", func() {
		s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil)
		s.registrar.EXPECT().Return(gomock.Any(), "alice.eth").Return(operation("op-r", registrar.StatusPending), nil)

		res := s.checkout(false, req("alice.eth"))
		s.True(res.Success)
		s.Equal(models.CodeReturned, res.Results[0].Code)
	})

	s.Run("missing domain needs no action", func() {
		s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(nil, notFound())

		res := s.checkout(false, req("bob.eth"))
		s.True(res.Success)
		s.Equal(models.CodeNoAction, res.Results[0].Code)
	})

	s.Run("domain held by someone else needs no action", func() {
		s.registrar.EXPECT().GetDomain(gomock.Any(), "carol.eth").Return(ownedBy("carol.eth", registrar.OwnerUser), nil)

		res := s.checkout(false, req("carol.eth"))
		s.True(res.Success)
		s.Equal(models.CodeNoAction, res.Results[0].Code)
	})

	s.assertNotStored("alice.eth")
}

func (s *FulfillmentSuite) TestCheckout_PartialBatch() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-1", registrar.StatusPending), nil)

	res := s.checkout(true, req("alice.eth"), req("not a domain"), req("ALICE.eth"))

	s.False(res.Success)
	s.Equal(models.OutcomePartial, res.Outcome)
	s.Require().Len(res.Results, 3)
	s.Equal(models.CodeRegistered, res.Results[0].Code)
	s.Equal(models.CodeInvalidDomain, res.Results[1].Code)
	s.Equal(models.CodeInvalidDomain, res.Results[2].Code)
	s.Contains(res.Results[2].Message, "duplicate")
}

func (s *FulfillmentSuite) TestCheckout_ConcurrentBatch() {
	s.service = s.newService(WithCheckoutConcurrency(4))
	names := []string{"a.eth", "b.eth", "c.eth", "d.eth", "e.eth"}
	var reqs []models.DomainRequest
	for _, n := range names {
		s.registrar.EXPECT().GetDomain(gomock.Any(), n).Return(ownedBy(n, registrar.OwnerNone), nil)
		s.registrar.EXPECT().Register(gomock.Any(), n).Return(operation("op-"+n, registrar.StatusPending), nil)
		reqs = append(reqs, req(n))
	}

	res := s.checkout(true, reqs...)

	s.True(res.Success)
	for i, n := range names {
		s.Equal(n, res.Results[i].DomainName, "results keep request order")
		s.Equal("op-"+n, s.stored(n).OperationID)
	}
}

// A failing store must not change what the buyer sees.
func (s *FulfillmentSuite) TestCheckout_StoreFailureIsLoggedNotReturned() {
	failing := mocks.NewMockOperationStore(s.ctrl)
	metrics := mocks.NewMockMetrics(s.ctrl)
	svc, err := New(s.registrar, failing, WithMetrics(metrics), WithLogger(s.service.logger))
	s.Require().NoError(err)

	failing.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	failing.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerNone), nil)
	s.registrar.EXPECT().Register(gomock.Any(), "alice.eth").Return(operation("op-1", registrar.StatusPending), nil)
	metrics.EXPECT().IncStoreWriteFailure("register")
	metrics.EXPECT().IncCheckoutDomain(string(models.CodeRegistered))

	res, err := svc.Checkout(s.ctx, models.CheckoutRequest{
		Domains:          []models.DomainRequest{req("alice.eth")},
		WalletAddress:    wallet,
		PaymentConfirmed: true,
	})
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal(models.CodeRegistered, res.Results[0].Code)
}

func (s *FulfillmentSuite) TestCheckout_Reservations() {
	reservations := mocks.NewMockReservations(s.ctrl)
	s.service = s.newService(WithReservations(reservations))

	s.Run("reserved by another wallet", func() {
		reservations.EXPECT().IsReserved(gomock.Any(), "alice.eth").Return(true, otherWallet, nil)

		res := s.checkout(true, req("alice.eth"))
		s.Equal(models.CodeDomainReserved, res.Results[0].Code)
		s.False(res.Success)
	})

	s.Run("own reservation is released on success", func() {
		reservations.EXPECT().IsReserved(gomock.Any(), "bob.eth").Return(true, wallet, nil)
		s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerNone), nil)
		s.registrar.EXPECT().Register(gomock.Any(), "bob.eth").Return(operation("op-1", registrar.StatusPending), nil)
		reservations.EXPECT().Release(gomock.Any(), "bob.eth", wallet).Return(nil)

		res := s.checkout(true, req("bob.eth"))
		s.True(res.Success)
	})

	s.Run("lookup failure does not block checkout", func() {
		reservations.EXPECT().IsReserved(gomock.Any(), "carol.eth").Return(false, "", sentinel.ErrUnavailable)
		s.registrar.EXPECT().GetDomain(gomock.Any(), "carol.eth").Return(ownedBy("carol.eth", registrar.OwnerNone), nil)
		s.registrar.EXPECT().Register(gomock.Any(), "carol.eth").Return(operation("op-2", registrar.StatusPending), nil)
		reservations.EXPECT().Release(gomock.Any(), "carol.eth", wallet).Return(nil)

		res := s.checkout(true, req("carol.eth"))
		s.True(res.Success)
	})
}

func (s *FulfillmentSuite) TestCheckout_RejectsBadInput() {
	_, err := s.service.Checkout(context.Background(), models.CheckoutRequest{
		Domains:       []models.DomainRequest{req("alice.eth")},
		WalletAddress: "not-a-wallet",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Checkout(context.Background(), models.CheckoutRequest{WalletAddress: wallet})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
