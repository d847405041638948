package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"namecart/internal/fulfillment/models"
	"namecart/internal/payment"
	"namecart/internal/registrar"
	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/sentinel"
)

const refundReason = "requested_by_customer"

// RefundStatusFailed is stored when a refund was attempted but the processor
// call errored, so the record surfaces for a manual refund.
const RefundStatusFailed = "failed"

// CompensationRequest identifies a failed registration. WalletAddress is
// only needed when no record exists for the operation yet.
type CompensationRequest struct {
	DomainName       string
	OperationID      string
	PaymentReference string
	WalletAddress    string
}

// HandleFailedMint undoes a failed registration: it returns the domain if we
// hold it, refunds a succeeded payment, and marks the record FAILED_HANDLED.
// Calls for the same operation are serialised by a lock and become no-ops
// once the record is FAILED_HANDLED.
func (s *Service) HandleFailedMint(ctx context.Context, req CompensationRequest) (*models.CompensationResult, error) {
	name, err := domain.ParseDomainName(req.DomainName)
	if err != nil {
		return nil, err
	}
	if req.OperationID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operation id is required")
	}
	var wallet domain.WalletAddress
	if req.WalletAddress != "" {
		if wallet, err = domain.ParseWalletAddress(req.WalletAddress); err != nil {
			return nil, err
		}
	}

	ctx, span := s.tracer.Start(ctx, "fulfillment.HandleFailedMint")
	defer span.End()
	span.SetAttributes(
		attribute.String("domain", name.String()),
		attribute.String("operation_id", req.OperationID),
	)

	res, err := s.compensate(ctx, name.String(), req.OperationID, req.PaymentReference, wallet.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compensation failed")
		return nil, err
	}
	return res, nil
}

func (s *Service) compensate(ctx context.Context, name, operationID, paymentReference, wallet string) (*models.CompensationResult, error) {
	lease, err := s.locker.TryAcquire(ctx, "compensate:"+operationID, s.lockTTL)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotAcquired) {
			s.metrics.IncCompensation("contended")
			return nil, dErrors.New(dErrors.CodeConflict, "compensation already in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to acquire compensation lock")
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release compensation lock", "operation_id", operationID, "error", err)
		}
	}()

	rec, err := s.store.FindByOperationID(ctx, operationID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		rec = nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load operation record")
	case rec.DomainName != name:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operation belongs to a different domain")
	case rec.Status == models.StatusFailedHandled:
		s.metrics.IncCompensation("skipped")
		return &models.CompensationResult{
			Status:  string(models.StatusFailedHandled),
			Skipped: true,
			Reason:  "already handled",
		}, nil
	}
	if rec == nil && wallet != "" {
		superseded, err := s.supersededBy(ctx, name, wallet, operationID)
		if err != nil {
			return nil, err
		}
		if superseded {
			s.metrics.IncCompensation("skipped")
			return &models.CompensationResult{
				Status:  string(models.StatusFailedHandled),
				Skipped: true,
				Reason:  "operation superseded",
			}, nil
		}
	}

	op, err := s.registrar.GetOperation(ctx, operationID)
	if err != nil {
		if registrar.IsNotFound(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "operation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to confirm operation status")
	}
	if op.Status != registrar.StatusFailed {
		s.metrics.IncCompensation("skipped")
		return &models.CompensationResult{
			Status:  string(op.Status),
			Skipped: true,
			Reason:  "operation has not failed",
		}, nil
	}

	if rec != nil {
		wallet = rec.WalletAddress
		if paymentReference == "" {
			paymentReference = rec.PaymentReference
		}
	}

	result := &models.CompensationResult{Status: string(models.StatusFailedHandled)}
	result.DomainReturned = s.returnIfHeld(ctx, name)

	var refundStatus *string
	if paymentReference != "" {
		refund, attempted := s.refund(ctx, name, operationID, wallet, paymentReference)
		result.Refund = refund
		switch {
		case refund != nil:
			status := refund.Status
			refundStatus = &status
		case attempted:
			status := RefundStatusFailed
			refundStatus = &status
		}
	}

	if wallet == "" {
		s.logger.WarnContext(ctx, "no operation record and no wallet, compensation not persisted",
			"domain", name,
			"operation_id", operationID,
		)
	} else {
		s.record(ctx, models.Key{Domain: name, Wallet: wallet}, "compensate", func(next *models.DomainOperation) {
			next.OperationID = operationID
			next.Status = models.StatusFailedHandled
			next.RefundStatus = refundStatus
			setPaymentReference(next, paymentReference)
		})
	}

	s.metrics.IncCompensation("handled")
	s.logger.InfoContext(ctx, "failed registration compensated",
		"domain", name,
		"operation_id", operationID,
		"domain_returned", result.DomainReturned,
		"refunded", result.Refund != nil,
	)
	return result, nil
}

// returnIfHeld gives the domain back to the registry. Errors are logged; they
// never block the refund.
func (s *Service) returnIfHeld(ctx context.Context, name string) bool {
	rec, err := s.registrar.GetDomain(ctx, name)
	if err != nil {
		if !registrar.IsNotFound(err) {
			s.logger.WarnContext(ctx, "domain lookup failed during compensation", "domain", name, "error", err)
		}
		return false
	}
	if rec.Owner.Type != registrar.OwnerMe {
		return false
	}
	if _, err := s.registrar.Return(ctx, name); err != nil {
		s.logger.ErrorContext(ctx, "failed to return domain", "domain", name, "error", err)
		return false
	}
	return true
}

// refund refunds a succeeded payment. attempted reports whether a refund call
// was made, so a processor error can be told apart from "nothing to refund".
func (s *Service) refund(ctx context.Context, name, operationID, wallet, reference string) (refund *payment.Refund, attempted bool) {
	if s.payments == nil {
		s.logger.WarnContext(ctx, "payment gateway not configured, refund skipped", "domain", name, "payment_reference", reference)
		return nil, false
	}

	p, err := s.payments.GetPayment(ctx, reference)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch payment", "payment_reference", reference, "error", err)
		return nil, false
	}
	if !p.Refundable() {
		s.logger.InfoContext(ctx, "payment not refundable, skipping refund",
			"payment_reference", reference,
			"payment_status", p.Status,
		)
		return nil, false
	}

	refund, err = s.payments.CreateRefund(ctx, payment.RefundRequest{
		PaymentReference: reference,
		Reason:           refundReason,
		Metadata: map[string]string{
			"domain":       name,
			"operation_id": operationID,
			"wallet":       wallet,
		},
		IdempotencyKey: "namecart-refund-" + operationID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "refund failed", "payment_reference", reference, "error", err)
		return nil, true
	}
	return refund, true
}

// supersededBy reports whether the record for name and wallet now tracks a
// different registrar operation, in which case the old one was already
// compensated before a new checkout replaced it.
func (s *Service) supersededBy(ctx context.Context, name, wallet, operationID string) (bool, error) {
	rec, err := s.store.Get(ctx, models.Key{Domain: name, Wallet: wallet})
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	case err != nil:
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load operation record")
	}
	return rec.OperationID != "" && rec.OperationID != operationID, nil
}
