package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"namecart/internal/fulfillment/models"
	"namecart/internal/payment"
	"namecart/internal/registrar"
	dErrors "namecart/pkg/domain-errors"
)

func (s *FulfillmentSuite) compensate(domain, opID, paymentRef string) (*models.CompensationResult, error) {
	return s.service.HandleFailedMint(s.ctx, CompensationRequest{
		DomainName:       domain,
		OperationID:      opID,
		PaymentReference: paymentRef,
	})
}

func succeededPayment(ref string) *payment.Payment {
	return &payment.Payment{ID: ref, Status: payment.StatusSucceeded, Amount: decimal.NewFromInt(25), Currency: "usd"}
}

func refundFor(ref string) *payment.Refund {
	return &payment.Refund{ID: "re_1", Status: "succeeded", Amount: decimal.NewFromInt(25), Currency: "usd", PaymentIntent: ref}
}

// A failed registration is returned and refunded exactly once.
func (s *FulfillmentSuite) TestCompensate_ReturnsAndRefunds() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "pi_9")

	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusFailed), nil).Times(1)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil).Times(1)
	s.registrar.EXPECT().Return(gomock.Any(), "bob.eth").Return(operation("op-10", registrar.StatusPending), nil).Times(1)
	s.payments.EXPECT().GetPayment(gomock.Any(), "pi_9").Return(succeededPayment("pi_9"), nil).Times(1)
	s.payments.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r payment.RefundRequest) (*payment.Refund, error) {
			s.Equal("pi_9", r.PaymentReference)
			s.Equal("namecart-refund-op-9", r.IdempotencyKey)
			s.Equal(map[string]string{"domain": "bob.eth", "operation_id": "op-9", "wallet": wallet}, r.Metadata)
			return refundFor("pi_9"), nil
		}).Times(1)

	res, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.True(res.DomainReturned)
	s.Require().NotNil(res.Refund)
	s.Equal("re_1", res.Refund.ID)
	s.False(res.Skipped)

	rec := s.stored("bob.eth")
	s.Equal(models.StatusFailedHandled, rec.Status)
	s.Require().NotNil(rec.RefundStatus)
	s.Equal("succeeded", *rec.RefundStatus)

	again, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.True(again.Skipped)
	s.Equal(string(models.StatusFailedHandled), again.Status)
}

// A charge that never succeeded is not refunded.
func (s *FulfillmentSuite) TestCompensate_RefundRequiresSucceededCharge() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusFailed), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerNone), nil)
	s.payments.EXPECT().GetPayment(gomock.Any(), "pi_9").
		Return(&payment.Payment{ID: "pi_9", Status: "requires_payment_method"}, nil)

	res, err := s.compensate("bob.eth", "op-9", "pi_9")
	s.Require().NoError(err)
	s.False(res.DomainReturned)
	s.Nil(res.Refund)

	rec := s.stored("bob.eth")
	s.Equal(models.StatusFailedHandled, rec.Status)
	s.Nil(rec.RefundStatus, "no refund attempted")
}

func (s *FulfillmentSuite) TestCompensate_NotFailedIsNoop() {
	s.seed("bob.eth", models.StatusProcessing, "op-9", true, "pi_9")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusProcessing), nil)

	res, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.True(res.Skipped)
	s.Equal(string(registrar.StatusProcessing), res.Status)
	s.Equal(models.StatusProcessing, s.stored("bob.eth").Status)
}

func (s *FulfillmentSuite) TestCompensate_ReturnFailureDoesNotBlockRefund() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "pi_9")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusFailed), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Return(gomock.Any(), "bob.eth").Return(nil, transient())
	s.payments.EXPECT().GetPayment(gomock.Any(), "pi_9").Return(succeededPayment("pi_9"), nil)
	s.payments.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).Return(refundFor("pi_9"), nil)

	res, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.False(res.DomainReturned)
	s.NotNil(res.Refund)
}

func (s *FulfillmentSuite) TestCompensate_RefundErrorIsRecorded() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "pi_9")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusFailed), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(nil, notFound())
	s.payments.EXPECT().GetPayment(gomock.Any(), "pi_9").Return(succeededPayment("pi_9"), nil)
	s.payments.EXPECT().CreateRefund(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "processor down"))

	res, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.Nil(res.Refund)

	rec := s.stored("bob.eth")
	s.Require().NotNil(rec.RefundStatus)
	s.Equal(RefundStatusFailed, *rec.RefundStatus)
}

// A second caller arriving while the first still holds the lock is turned
// away before it can reach the registrar.
func (s *FulfillmentSuite) TestCompensate_ConcurrentCallIsRejected() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "")

	var inner error
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").
		DoAndReturn(func(context.Context, string) (*registrar.Operation, error) {
			_, inner = s.compensate("bob.eth", "op-9", "")
			return operation("op-9", registrar.StatusFailed), nil
		}).Times(1)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil).Times(1)
	s.registrar.EXPECT().Return(gomock.Any(), "bob.eth").Return(operation("op-10", registrar.StatusPending), nil).Times(1)

	res, err := s.compensate("bob.eth", "op-9", "")
	s.Require().NoError(err)
	s.True(res.DomainReturned)
	s.True(dErrors.HasCode(inner, dErrors.CodeConflict))

	lease, err := s.locker.TryAcquire(context.Background(), "compensate:op-9", time.Minute)
	s.Require().NoError(err, "lock released after compensation")
	s.Require().NoError(lease.Release(context.Background()))
}

func (s *FulfillmentSuite) TestCompensate_UntrackedOperationWithWallet() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-9").Return(operation("op-9", registrar.StatusFailed), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(nil, notFound())

	res, err := s.service.HandleFailedMint(s.ctx, CompensationRequest{
		DomainName:    "bob.eth",
		OperationID:   "op-9",
		WalletAddress: wallet,
	})
	s.Require().NoError(err)
	s.False(res.Skipped)

	rec := s.stored("bob.eth")
	s.Equal(models.StatusFailedHandled, rec.Status)
	s.Equal("op-9", rec.OperationID)
	s.False(rec.NeedsTransfer)
}

// A late failure callback for an operation whose record a newer checkout
// replaced leaves the new saga untouched.
func (s *FulfillmentSuite) TestCompensate_SupersededOperationIsSkipped() {
	s.seed("bob.eth", models.StatusPending, "op-new", true, "pi_new")

	res, err := s.service.HandleFailedMint(s.ctx, CompensationRequest{
		DomainName:       "bob.eth",
		OperationID:      "op-old",
		PaymentReference: "pi_old",
		WalletAddress:    wallet,
	})
	s.Require().NoError(err)
	s.True(res.Skipped)
	s.Equal("operation superseded", res.Reason)

	rec := s.stored("bob.eth")
	s.Equal(models.StatusPending, rec.Status)
	s.Equal("op-new", rec.OperationID)
	s.Equal("pi_new", rec.PaymentReference)
}

func (s *FulfillmentSuite) TestCompensate_RejectsBadRequests() {
	s.seed("bob.eth", models.StatusFailed, "op-9", true, "")

	_, err := s.compensate("alice.eth", "op-9", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "operation belongs to another domain")

	_, err = s.compensate("bob.eth", "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-404").Return(nil, notFound())
	_, err = s.compensate("bob.eth", "op-404", "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-500").Return(nil, errors.New("connection reset"))
	_, err = s.compensate("bob.eth", "op-500", "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
