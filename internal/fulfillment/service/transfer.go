package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"namecart/internal/fulfillment/models"
	"namecart/internal/registrar"
	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
)

// Transfer moves a registered domain to the wallet and records the transfer
// operation. A result with OK=false is a normal "not now" answer; an error
// means the registrar kept failing for every attempt.
func (s *Service) Transfer(ctx context.Context, domainName, walletAddress, operationID string) (*models.TransferResult, error) {
	name, err := domain.ParseDomainName(domainName)
	if err != nil {
		return nil, err
	}
	wallet, err := domain.ParseWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "fulfillment.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("domain", name.String()),
		attribute.String("operation_id", operationID),
	)

	key := models.Key{Domain: name.String(), Wallet: wallet.String()}
	res, err := s.transferAndRecord(ctx, key, operationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transfer failed")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "transfer failed")
	}
	return res, nil
}

func (s *Service) transferAndRecord(ctx context.Context, key models.Key, operationID string) (*models.TransferResult, error) {
	res, err := s.issueTransfer(ctx, key.Domain, key.Wallet, operationID)
	if err != nil {
		return nil, err
	}
	if res.OK {
		op := res.Operation
		s.record(ctx, key, "transfer", func(next *models.DomainOperation) {
			next.OperationID = op.ID
			next.Status = models.FromRegistrar(op.Status)
			next.NeedsTransfer = false
		})
		s.logger.InfoContext(ctx, "transfer issued",
			"domain", key.Domain,
			"wallet", key.Wallet,
			"operation_id", op.ID,
		)
	}
	return res, nil
}

// issueTransfer is the transfer engine: with an operation id it first checks
// the registration completed, then hands over to transferSettled.
func (s *Service) issueTransfer(ctx context.Context, name, wallet, operationID string) (*models.TransferResult, error) {
	if operationID == "" {
		return s.transferSettled(ctx, name, wallet, false)
	}
	op, err := s.registrar.GetOperation(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("get operation %s: %w", operationID, err)
	}
	if op.Status != registrar.StatusCompleted {
		return &models.TransferResult{OK: false, Reason: models.ReasonNotComplete}, nil
	}
	return s.transferSettled(ctx, name, wallet, true)
}

// transferSettled confirms we hold the domain and tries the transfer a bounded
// number of times with doubling backoff. A 404 ends the loop at once.
func (s *Service) transferSettled(ctx context.Context, name, wallet string, justCompleted bool) (*models.TransferResult, error) {
	if justCompleted {
		// registrar reads lag behind a completed registration
		if err := s.sleep(ctx, s.propagationDelay); err != nil {
			return nil, err
		}
	}

	rec, err := s.registrar.GetDomain(ctx, name)
	if err != nil {
		if registrar.IsNotFound(err) {
			return &models.TransferResult{OK: false, Reason: models.ReasonDomainNotFound}, nil
		}
		return nil, fmt.Errorf("get domain %s: %w", name, err)
	}
	if rec.Owner.Type != registrar.OwnerMe {
		return &models.TransferResult{OK: false, Reason: models.ReasonNotOwned}, nil
	}

	var lastErr error
	delay := s.retryBase
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		op, err := s.registrar.Transfer(ctx, name, wallet)
		if err == nil {
			s.metrics.IncTransferAttempt("success")
			return &models.TransferResult{OK: true, Operation: op}, nil
		}
		if registrar.IsNotFound(err) {
			s.metrics.IncTransferAttempt("not_found")
			return &models.TransferResult{OK: false, Reason: models.ReasonDomainNotFound}, nil
		}

		s.metrics.IncTransferAttempt("error")
		lastErr = err
		s.logger.WarnContext(ctx, "transfer attempt failed",
			"domain", name,
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"error", err,
		)
		if attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
	return nil, fmt.Errorf("transfer %s: %d attempts failed: %w", name, s.maxAttempts, lastErr)
}
