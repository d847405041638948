package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"namecart/internal/fulfillment/models"
	"namecart/internal/registrar"
	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/sentinel"
)

// Checkout fulfils each requested domain independently and reports per-domain
// results. It is a best-effort batch: domains that succeed are not rolled back
// when a sibling fails.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error) {
	wallet, err := domain.ParseWalletAddress(req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if len(req.Domains) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one domain is required")
	}

	ctx, span := s.tracer.Start(ctx, "fulfillment.Checkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int("domains", len(req.Domains)),
		attribute.Bool("payment_confirmed", req.PaymentConfirmed),
	)

	results := make([]models.DomainResult, len(req.Domains))
	seen := make(map[domain.DomainName]struct{}, len(req.Domains))

	var g errgroup.Group
	g.SetLimit(s.checkoutConcurrency)
	for i, d := range req.Domains {
		name, err := domain.ParseDomainName(d.DomainName)
		if err != nil {
			results[i] = failure(d.DomainName, models.CodeInvalidDomain, err.Error())
			continue
		}
		if _, dup := seen[name]; dup {
			results[i] = failure(name.String(), models.CodeInvalidDomain, "duplicate domain in request")
			continue
		}
		seen[name] = struct{}{}

		key := models.Key{Domain: name.String(), Wallet: wallet.String()}
		operationID := d.OperationID
		g.Go(func() error {
			results[i] = s.checkoutDomain(ctx, key, operationID, req.PaymentConfirmed, req.PaymentReference)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		s.metrics.IncCheckoutDomain(string(r.Code))
	}
	outcome := models.OutcomeOf(results)
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	s.logger.InfoContext(ctx, "checkout processed",
		"wallet", wallet.String(),
		"domains", len(results),
		"outcome", outcome,
	)
	return &models.CheckoutResult{
		Success: outcome == models.OutcomeSuccess,
		Outcome: outcome,
		Results: results,
	}, nil
}

func (s *Service) checkoutDomain(ctx context.Context, key models.Key, operationID string, paymentConfirmed bool, paymentReference string) models.DomainResult {
	if !paymentConfirmed {
		return s.releaseUnpaid(ctx, key.Domain)
	}

	if s.reservations != nil {
		reserved, owner, err := s.reservations.IsReserved(ctx, key.Domain)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "reservation lookup failed, continuing",
				"domain", key.Domain,
				"error", err,
			)
		case reserved && owner != key.Wallet:
			return failure(key.Domain, models.CodeDomainReserved, "domain is reserved by another wallet")
		}
	}

	existing, err := s.store.Get(ctx, key)
	if err != nil {
		existing = nil
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "operation lookup failed, continuing from registrar state",
				"domain", key.Domain,
				"error", err,
			)
		}
	}
	if existing != nil && existing.Status == models.StatusFailedHandled {
		// the earlier saga is closed; this payment starts a new one
		existing = nil
	}
	if existing != nil {
		if res, done := fromExisting(*existing); done {
			return res
		}
		if operationID == "" && existing.NeedsTransfer {
			operationID = existing.OperationID
		}
	}

	var res models.DomainResult
	handled := false
	if operationID != "" {
		res, handled = s.resume(ctx, key, operationID, paymentReference)
	}
	if !handled {
		res = s.start(ctx, key, paymentReference)
	}

	if res.Success && s.reservations != nil {
		if err := s.reservations.Release(ctx, key.Domain, key.Wallet); err != nil {
			s.logger.WarnContext(ctx, "failed to release reservation after checkout",
				"domain", key.Domain,
				"error", err,
			)
		}
	}
	return res
}

// fromExisting answers from the stored record when the saga for this
// (domain, wallet) has already moved past checkout. A failed transfer does
// not count; checkout starts over from the domain state.
func fromExisting(rec models.DomainOperation) (models.DomainResult, bool) {
	if !rec.NeedsTransfer && rec.OperationID != "" && rec.Status != models.StatusFailed {
		return models.DomainResult{
			DomainName:  rec.DomainName,
			Success:     true,
			OperationID: rec.OperationID,
			Status:      rec.Status,
			Code:        models.CodeTransferIssued,
			Message:     "transfer already issued",
		}, true
	}
	return models.DomainResult{}, false
}

// releaseUnpaid hands a domain back to the registry when payment did not go
// through.
func (s *Service) releaseUnpaid(ctx context.Context, name string) models.DomainResult {
	rec, err := s.registrar.GetDomain(ctx, name)
	if err != nil {
		if registrar.IsNotFound(err) {
			return noAction(name, "domain does not exist")
		}
		return failure(name, models.CodeRegistrarError, err.Error())
	}
	if rec.Owner.Type != registrar.OwnerMe {
		return noAction(name, "domain is not held by this account")
	}

	op, err := s.registrar.Return(ctx, name)
	if err != nil {
		if registrar.IsNotFound(err) {
			return noAction(name, "domain does not exist")
		}
		return failure(name, models.CodeRegistrarError, err.Error())
	}
	s.logger.InfoContext(ctx, "domain returned after unconfirmed payment",
		"domain", name,
		"operation_id", op.ID,
	)
	return models.DomainResult{
		DomainName:  name,
		Success:     true,
		OperationID: op.ID,
		Status:      models.FromRegistrar(op.Status),
		Code:        models.CodeReturned,
	}
}

// resume continues from a registration the caller (or the store) already
// knows about. handled is false when the operation could not be looked up,
// in which case the caller starts over from the domain state.
func (s *Service) resume(ctx context.Context, key models.Key, operationID, paymentReference string) (models.DomainResult, bool) {
	op, err := s.registrar.GetOperation(ctx, operationID)
	if err != nil {
		s.logger.WarnContext(ctx, "operation lookup failed, checking domain instead",
			"domain", key.Domain,
			"operation_id", operationID,
			"error", err,
		)
		return models.DomainResult{}, false
	}

	status := models.FromRegistrar(op.Status)
	if status == models.StatusFailed {
		s.record(ctx, key, "checkout", func(next *models.DomainOperation) {
			next.OperationID = operationID
			next.Status = status
			setPaymentReference(next, paymentReference)
		})
		res := failure(key.Domain, models.CodeRegistrarError, "registration failed, compensation pending")
		res.OperationID = operationID
		res.Status = status
		return res, true
	}
	if status != models.StatusCompleted {
		s.record(ctx, key, "checkout", func(next *models.DomainOperation) {
			next.OperationID = operationID
			next.Status = status
			next.NeedsTransfer = true
			setPaymentReference(next, paymentReference)
		})
		return models.DomainResult{
			DomainName:    key.Domain,
			Success:       true,
			OperationID:   operationID,
			Status:        status,
			NeedsTransfer: true,
			Code:          models.CodeInProgress,
			Message:       "registration in progress",
		}, true
	}

	return s.transferCompleted(ctx, key, operationID, paymentReference), true
}

func (s *Service) transferCompleted(ctx context.Context, key models.Key, operationID, paymentReference string) models.DomainResult {
	res, err := s.transferSettled(ctx, key.Domain, key.Wallet, true)
	if err == nil && res.OK {
		op := res.Operation
		s.record(ctx, key, "checkout", func(next *models.DomainOperation) {
			next.OperationID = op.ID
			next.Status = models.FromRegistrar(op.Status)
			next.NeedsTransfer = false
			setPaymentReference(next, paymentReference)
		})
		return models.DomainResult{
			DomainName:  key.Domain,
			Success:     true,
			OperationID: op.ID,
			Status:      models.FromRegistrar(op.Status),
			Code:        models.CodeTransferIssued,
		}
	}

	// the registration stands; reconciliation retries the transfer
	s.record(ctx, key, "checkout", func(next *models.DomainOperation) {
		next.OperationID = operationID
		next.Status = models.StatusCompleted
		next.NeedsTransfer = true
		setPaymentReference(next, paymentReference)
	})

	if err != nil {
		s.logger.WarnContext(ctx, "transfer not issued, will retry on reconciliation",
			"domain", key.Domain,
			"operation_id", operationID,
			"error", err,
		)
		return models.DomainResult{
			DomainName:    key.Domain,
			Success:       true,
			OperationID:   operationID,
			Status:        models.StatusCompleted,
			NeedsTransfer: true,
			Code:          models.CodeInProgress,
			Message:       "registration completed, transfer pending",
		}
	}
	return transferRefusal(key.Domain, operationID, res.Reason)
}

// start handles a domain with no usable prior operation.
func (s *Service) start(ctx context.Context, key models.Key, paymentReference string) models.DomainResult {
	rec, err := s.registrar.GetDomain(ctx, key.Domain)
	switch {
	case err != nil && !registrar.IsNotFound(err):
		return failure(key.Domain, models.CodeRegistrarError, err.Error())
	case err != nil, rec.Registrable():
		return s.register(ctx, key, paymentReference)
	case rec.Owner.Type == registrar.OwnerMe:
		return s.transferHeld(ctx, key, paymentReference)
	default:
		return failure(key.Domain, models.CodeDomainUnavailable, "domain is owned by someone else")
	}
}

func (s *Service) register(ctx context.Context, key models.Key, paymentReference string) models.DomainResult {
	op, err := s.registrar.Register(ctx, key.Domain)
	if err != nil {
		if registrar.CategoryOf(err) == registrar.CategoryConflict {
			return failure(key.Domain, models.CodeDomainUnavailable, "domain was taken")
		}
		return failure(key.Domain, models.CodeRegistrarError, err.Error())
	}

	status := models.FromRegistrar(op.Status)
	s.record(ctx, key, "register", func(next *models.DomainOperation) {
		restart(next)
		next.OperationID = op.ID
		next.Status = status
		next.NeedsTransfer = true
		next.RefundStatus = nil
		setPaymentReference(next, paymentReference)
	})
	s.logger.InfoContext(ctx, "registration issued",
		"domain", key.Domain,
		"wallet", key.Wallet,
		"operation_id", op.ID,
		"status", status,
	)
	return models.DomainResult{
		DomainName:    key.Domain,
		Success:       true,
		OperationID:   op.ID,
		Status:        status,
		NeedsTransfer: true,
		Code:          models.CodeRegistered,
	}
}

// transferHeld transfers a domain this account already owns, for example one
// left behind by an interrupted earlier run.
func (s *Service) transferHeld(ctx context.Context, key models.Key, paymentReference string) models.DomainResult {
	res, err := s.transferSettled(ctx, key.Domain, key.Wallet, false)
	if err != nil {
		return failure(key.Domain, models.CodeRegistrarError, err.Error())
	}
	if !res.OK {
		return transferRefusal(key.Domain, "", res.Reason)
	}
	op := res.Operation
	s.record(ctx, key, "checkout", func(next *models.DomainOperation) {
		restart(next)
		next.OperationID = op.ID
		next.Status = models.FromRegistrar(op.Status)
		next.NeedsTransfer = false
		setPaymentReference(next, paymentReference)
	})
	return models.DomainResult{
		DomainName:  key.Domain,
		Success:     true,
		OperationID: op.ID,
		Status:      models.FromRegistrar(op.Status),
		Code:        models.CodeTransferIssued,
	}
}

// restart drops the refund state of a compensated record before a new
// registrar action replaces it. The old payment was already refunded.
func restart(rec *models.DomainOperation) {
	if rec.Status == models.StatusFailedHandled {
		rec.PaymentReference = ""
		rec.RefundStatus = nil
	}
}

func transferRefusal(name, operationID, reason string) models.DomainResult {
	code := models.CodeRegistrarError
	switch reason {
	case models.ReasonNotOwned:
		code = models.CodeNotOwned
	case models.ReasonDomainNotFound:
		code = models.CodeNotFound
	}
	res := failure(name, code, reason)
	res.OperationID = operationID
	return res
}

func setPaymentReference(rec *models.DomainOperation, ref string) {
	if ref != "" {
		rec.PaymentReference = ref
	}
}

func failure(name string, code models.ResultCode, msg string) models.DomainResult {
	return models.DomainResult{DomainName: name, Success: false, Code: code, Message: msg}
}

func noAction(name, msg string) models.DomainResult {
	return models.DomainResult{DomainName: name, Success: true, Code: models.CodeNoAction, Message: msg}
}
