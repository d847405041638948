package service

import (
	"time"

	"go.uber.org/mock/gomock"

	"namecart/internal/fulfillment/models"
	"namecart/internal/registrar"
	dErrors "namecart/pkg/domain-errors"
)

// A transfer against an unfinished registration makes no transfer call.
func (s *FulfillmentSuite) TestTransfer_NotCompleteYet() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusProcessing), nil)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "op-1")

	s.Require().NoError(err)
	s.False(res.OK)
	s.Equal(models.ReasonNotComplete, res.Reason)
	s.Empty(s.sleeps)
	s.assertNotStored("bob.eth")
}

func (s *FulfillmentSuite) TestTransfer_SucceedsAndRecords() {
	s.seed("bob.eth", models.StatusCompleted, "op-1", true, "pi_1")
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(operation("op-2", registrar.StatusPending), nil)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "op-1")

	s.Require().NoError(err)
	s.True(res.OK)
	s.Equal("op-2", res.Operation.ID)
	rec := s.stored("bob.eth")
	s.Equal("op-2", rec.OperationID)
	s.Equal(models.StatusPending, rec.Status)
	s.False(rec.NeedsTransfer)
	s.Equal("pi_1", rec.PaymentReference)
}

// Transfers make at most maxAttempts calls with doubling backoff.
func (s *FulfillmentSuite) TestTransfer_RetryBound() {
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(nil, transient()).Times(3)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "op-1")

	s.Nil(res)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal([]time.Duration{3 * time.Second, time.Second, 2 * time.Second}, s.sleeps)
	s.assertNotStored("bob.eth")
}

func (s *FulfillmentSuite) TestTransfer_RecoversWithinBound() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	gomock.InOrder(
		s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(nil, transient()),
		s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(operation("op-2", registrar.StatusPending), nil),
	)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "")

	s.Require().NoError(err)
	s.True(res.OK)
	s.Equal([]time.Duration{time.Second}, s.sleeps, "no propagation wait without an operation id")
}

// A 404 ends the retry loop immediately.
func (s *FulfillmentSuite) TestTransfer_NoRetryAfterNotFound() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(nil, notFound()).Times(1)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "")

	s.Require().NoError(err)
	s.False(res.OK)
	s.Equal(models.ReasonDomainNotFound, res.Reason)
	s.Empty(s.sleeps)
}

func (s *FulfillmentSuite) TestTransfer_NotOwned() {
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerUser), nil)

	res, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "")

	s.Require().NoError(err)
	s.False(res.OK)
	s.Equal(models.ReasonNotOwned, res.Reason)
}

func (s *FulfillmentSuite) TestTransfer_CustomPolicy() {
	s.service = s.newService(WithTransferPolicy(time.Second, 2, 100*time.Millisecond))
	s.registrar.EXPECT().GetOperation(gomock.Any(), "op-1").Return(operation("op-1", registrar.StatusCompleted), nil)
	s.registrar.EXPECT().GetDomain(gomock.Any(), "bob.eth").Return(ownedBy("bob.eth", registrar.OwnerMe), nil)
	s.registrar.EXPECT().Transfer(gomock.Any(), "bob.eth", wallet).Return(nil, transient()).Times(2)

	_, err := s.service.Transfer(s.ctx, "bob.eth", wallet, "op-1")

	s.Error(err)
	s.Equal([]time.Duration{time.Second, 100 * time.Millisecond}, s.sleeps)
}

func (s *FulfillmentSuite) TestTransfer_InvalidInput() {
	_, err := s.service.Transfer(s.ctx, "", wallet, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Transfer(s.ctx, "bob.eth", "0x123", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
