package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"namecart/internal/fulfillment/mocks"
	"namecart/internal/fulfillment/models"
	"namecart/internal/registrar"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/requestcontext"
)

// Reconciliation sees the registration complete and issues the transfer.
func (s *FulfillmentSuite) TestReconcile_CompletedRegistrationIsTransferred() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil).Times(2)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "alice.eth").Return(ownedBy("alice.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "alice.eth", wallet).Return(operation("op-2", registrar.StatusPending), nil)

	res, err := s.service.Reconcile(s.ctx, wallet)

	s.Require().NoError(err)
	s.False(res.Skipped)
	s.Require().Len(res.Operations, 1)
	op := res.Operations[0]
	s.Equal("op-2", op.OperationID)
	s.Equal(models.StatusPending, op.Status)
	s.False(op.NeedsTransfer)
	s.Equal(op, *s.stored("alice.eth"))
}

func (s *FulfillmentSuite) TestReconcile_FailedRegistrationIsCompensated() {
	s.seed("bob.eth", models.StatusQueued, "op-3", true, "pi_3")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-3").Return(operation("op-3", registrar.StatusFailed), nil).Times(2)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerNone), nil)
	s.payments.EXPECT().GetPayment(gomock.Any(), "pi_3").Return(succeededPayment("pi_3"), nil)
	s.payments.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).Return(refundFor("pi_3"), nil)

	res, err := s.service.Reconcile(s.ctx, wallet)

	s.Require().NoError(err)
	s.Equal(models.StatusFailedHandled, res.Operations[0].Status)
	s.Equal("succeeded", *res.Operations[0].RefundStatus)
}

func (s *FulfillmentSuite) TestReconcile_StatusChangeIsMirrored() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusProcessing), nil)

	res, err := s.service.Reconcile(s.ctx, wallet)

	s.Require().NoError(err)
	s.Equal(models.StatusProcessing, res.Operations[0].Status)
	s.True(res.Operations[0].NeedsTransfer)
	s.Equal(int64(2), s.stored("alice.eth").Version)
}

func (s *FulfillmentSuite) TestReconcile_Debounced() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusPending), nil).Times(1)

	first, err := s.service.Reconcile(s.ctx, wallet)
	s.Require().NoError(err)
	s.False(first.Skipped)

	soon := requestcontext.WithTime(context.Background(), s.now.Add(4*time.Second))
	second, err := s.service.Reconcile(soon, wallet)
	s.Require().NoError(err)
	s.True(second.Skipped)
	s.Len(second.Operations, 1)

	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusPending), nil).Times(1)
	later := requestcontext.WithTime(context.Background(), s.now.Add(6*time.Second))
	third, err := s.service.Reconcile(later, wallet)
	s.Require().NoError(err)
	s.False(third.Skipped)
}

func (s *FulfillmentSuite) TestReconcile_ForceIgnoresDebounce() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusPending), nil).Times(2)

	_, err := s.service.Reconcile(s.ctx, wallet)
	s.Require().NoError(err)
	res, err := s.service.ForceReconcile(s.ctx, wallet)
	s.Require().NoError(err)
	s.False(res.Skipped)
}

func (s *FulfillmentSuite) TestReconcile_LeavesHandledAndFinishedRecordsAlone() {
	s.seed("done.eth", models.StatusCompleted, "op-7", false, "")
	s.seed("gone.eth", models.StatusFailedHandled, "op-8", true, "")

	res, err := s.service.Reconcile(s.ctx, wallet)

	s.Require().NoError(err)
	s.Len(res.Operations, 2)
	s.Equal(models.StatusFailedHandled, s.stored("gone.eth").Status)
}

func (s *FulfillmentSuite) TestReconcile_RegistrarErrorsAreTolerated() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(nil, transient())

	res, err := s.service.Reconcile(s.ctx, wallet)

	s.Require().NoError(err)
	s.Equal(models.StatusPending, res.Operations[0].Status)
}

func (s *FulfillmentSuite) TestReconcile_StoreErrorIsReturned() {
	failing := mocks.NewMockOperationStore(s.ctrl)
	svc, err := New(s.registrar, failing, WithLogger(s.service.logger))
	s.Require().NoError(err)
	failing.EXPECT().ListByWallet(gomock.Any(), wallet).Return(nil, errors.New("db down"))

	_, err = svc.Reconcile(s.ctx, wallet)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *FulfillmentSuite) TestReconcile_InvalidWallet() {
	_, err := s.service.Reconcile(s.ctx, "bob")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *FulfillmentSuite) TestSweep_ReconcilesPendingWallets() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	s.seed("done.eth", models.StatusCompleted, "op-7", false, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusQueued), nil)

	res, err := s.service.Sweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, res.Wallets)
	s.Zero(res.Failures)
	s.Equal(models.StatusQueued, s.stored("alice.eth").Status)
}

func (s *FulfillmentSuite) TestReconcile_SharedPassOutlivesCallerCancel() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").
		DoAndReturn(func(ctx context.Context, id string) (*registrar.Operation, error) {
			s.NoError(ctx.Err())
			return operation(id, registrar.StatusQueued), nil
		})

	res, err := s.service.Reconcile(ctx, wallet)

	s.Require().NoError(err)
	s.False(res.Skipped)
	s.Equal(models.StatusQueued, s.stored("alice.eth").Status)
}

func (s *FulfillmentSuite) TestSweep_RotatesPastLimit() {
	svc := s.newService(WithSweepLimit(1), WithReconcileInterval(0))
	s.seed("alice.eth", models.StatusPending, "op-a", true, "")
	_, err := s.store.Update(context.Background(), models.Key{Domain: "bob.eth", Wallet: otherWallet},
		func(*models.DomainOperation) (*models.DomainOperation, error) {
			return &models.DomainOperation{
				DomainName:    "bob.eth",
				WalletAddress: otherWallet,
				OperationID:   "op-b",
				Status:        models.StatusPending,
				NeedsTransfer: true,
			}, nil
		})
	s.Require().NoError(err)

	polled := map[string]int{}
	s.registrar.EXPECT().GetOperation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*registrar.Operation, error) {
			polled[id]++
			return operation(id, registrar.StatusPending), nil
		}).Times(4)

	for i := 0; i < 4; i++ {
		res, err := svc.Sweep(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, res.Wallets)
	}
	s.Equal(map[string]int{"op-a": 2, "op-b": 2}, polled)
}

func (s *FulfillmentSuite) TestOperations_ReadsStoreOnly() {
	s.seed("alice.eth", models.StatusPending, "op-1", true, "")

	ops, err := s.service.Operations(s.ctx, wallet)

	s.Require().NoError(err)
	s.Len(ops, 1)
}
