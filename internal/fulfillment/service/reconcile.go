package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"namecart/internal/fulfillment/models"
	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/requestcontext"
)

// Reconcile brings a wallet's records in line with the registrar and drives
// each one forward: failed registrations are compensated and completed ones
// transferred. Passes closer together than the reconcile interval are
// skipped, and concurrent calls for one wallet share a single pass.
func (s *Service) Reconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error) {
	return s.reconcileShared(ctx, walletAddress, false)
}

// ForceReconcile runs a pass regardless of when the last one finished.
func (s *Service) ForceReconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error) {
	return s.reconcileShared(ctx, walletAddress, true)
}

// Operations lists a wallet's records without contacting the registrar.
func (s *Service) Operations(ctx context.Context, walletAddress string) ([]models.DomainOperation, error) {
	wallet, err := domain.ParseWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	ops, err := s.store.ListByWallet(ctx, wallet.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load operations")
	}
	return ops, nil
}

const reconcilePassTimeout = 2 * time.Minute

func (s *Service) reconcileShared(ctx context.Context, walletAddress string, force bool) (*models.ReconcileResult, error) {
	wallet, err := domain.ParseWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	key := wallet.String()
	if force {
		key += "|force"
	}
	v, err, _ := s.reconciles.Do(key, func() (any, error) {
		// callers collapsed into this pass must not inherit the first
		// caller's cancellation
		passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcilePassTimeout)
		defer cancel()
		return s.reconcile(passCtx, wallet.String(), force)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ReconcileResult), nil
}

func (s *Service) reconcile(ctx context.Context, wallet string, force bool) (*models.ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Bool("force", force))

	if !force && s.recentlyReconciled(ctx, wallet) {
		ops, err := s.store.ListByWallet(ctx, wallet)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load operations")
		}
		s.metrics.IncReconcile("skipped")
		span.SetAttributes(attribute.Bool("skipped", true))
		return &models.ReconcileResult{Wallet: wallet, Skipped: true, Operations: ops}, nil
	}

	ops, err := s.store.ListByWallet(ctx, wallet)
	if err != nil {
		s.metrics.IncReconcile("error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load operations")
	}

	for i := range ops {
		s.refreshStatus(ctx, &ops[i])
	}

	for i := range ops {
		if ops[i].Status != models.StatusFailed {
			continue
		}
		if _, err := s.compensate(ctx, ops[i].DomainName, ops[i].OperationID, "", ops[i].WalletAddress); err != nil {
			s.logger.WarnContext(ctx, "compensation during reconciliation failed",
				"domain", ops[i].DomainName,
				"operation_id", ops[i].OperationID,
				"error", err,
			)
		}
		s.reload(ctx, &ops[i])
	}

	for i := range ops {
		if ops[i].Status != models.StatusCompleted || !ops[i].NeedsTransfer {
			continue
		}
		res, err := s.transferAndRecord(ctx, ops[i].Key(), ops[i].OperationID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "transfer during reconciliation failed",
				"domain", ops[i].DomainName,
				"error", err,
			)
		case !res.OK:
			s.logger.InfoContext(ctx, "transfer not issued during reconciliation",
				"domain", ops[i].DomainName,
				"reason", res.Reason,
			)
		}
		s.reload(ctx, &ops[i])
	}

	if err := s.debouncer.MarkCompleted(ctx, wallet, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to record reconciliation pass", "wallet", wallet, "error", err)
	}
	s.metrics.IncReconcile("completed")
	return &models.ReconcileResult{Wallet: wallet, Operations: ops}, nil
}

func (s *Service) recentlyReconciled(ctx context.Context, wallet string) bool {
	if s.reconcileInterval <= 0 {
		return false
	}
	last, ok, err := s.debouncer.LastCompleted(ctx, wallet)
	if err != nil {
		s.logger.WarnContext(ctx, "debounce lookup failed, reconciling anyway", "wallet", wallet, "error", err)
		return false
	}
	return ok && requestcontext.Now(ctx).Sub(last) < s.reconcileInterval
}

// refreshStatus mirrors the registrar's view of an in-flight operation into
// the store. The write is skipped if the record moved on in the meantime.
func (s *Service) refreshStatus(ctx context.Context, op *models.DomainOperation) {
	if !op.Status.InFlight() || op.OperationID == "" {
		return
	}
	remote, err := s.registrar.GetOperation(ctx, op.OperationID)
	if err != nil {
		s.logger.WarnContext(ctx, "operation status lookup failed",
			"domain", op.DomainName,
			"operation_id", op.OperationID,
			"error", err,
		)
		return
	}
	status := models.FromRegistrar(remote.Status)
	if status == op.Status {
		return
	}

	operationID := op.OperationID
	updated, err := s.store.Update(ctx, op.Key(), func(current *models.DomainOperation) (*models.DomainOperation, error) {
		if current == nil || current.OperationID != operationID || current.Status == models.StatusFailedHandled {
			return nil, nil
		}
		next := *current
		next.Status = status
		return &next, nil
	})
	if err != nil {
		s.metrics.IncStoreWriteFailure("reconcile")
		s.logger.ErrorContext(ctx, "failed to persist reconciled status",
			"domain", op.DomainName,
			"operation_id", operationID,
			"error", err,
		)
		op.Status = status
		return
	}
	if updated != nil {
		*op = *updated
	}
}

func (s *Service) reload(ctx context.Context, op *models.DomainOperation) {
	fresh, err := s.store.Get(ctx, op.Key())
	if err != nil {
		return
	}
	*op = *fresh
}

// Sweep reconciles wallets that still have unfinished operations, at most
// the sweep limit per call. Each sweep resumes after the last wallet of the
// previous one and wraps around, so every pending wallet gets a turn.
func (s *Service) Sweep(ctx context.Context) (*models.SweepResult, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	wallets, err := s.pendingWallets(ctx, s.sweepCursor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list pending wallets")
	}
	s.sweepCursor = ""
	if s.sweepLimit > 0 && len(wallets) == s.sweepLimit {
		s.sweepCursor = wallets[len(wallets)-1]
	}
	return s.ReconcileWallets(ctx, wallets), nil
}

// pendingWallets lists up to sweepLimit wallets after cursor, then fills the
// batch from the start of the address range.
func (s *Service) pendingWallets(ctx context.Context, cursor string) ([]string, error) {
	wallets, err := s.store.ListPendingWallets(ctx, cursor, s.sweepLimit)
	if err != nil || cursor == "" {
		return wallets, err
	}
	if s.sweepLimit > 0 && len(wallets) >= s.sweepLimit {
		return wallets, nil
	}
	remaining := 0
	if s.sweepLimit > 0 {
		remaining = s.sweepLimit - len(wallets)
	}
	head, err := s.store.ListPendingWallets(ctx, "", remaining)
	if err != nil {
		return nil, err
	}
	for _, w := range head {
		if w > cursor {
			break
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// ReconcileWallets runs one pass per wallet, sequentially.
func (s *Service) ReconcileWallets(ctx context.Context, wallets []string) *models.SweepResult {
	result := &models.SweepResult{}
	for _, w := range wallets {
		if ctx.Err() != nil {
			break
		}
		result.Wallets++
		if _, err := s.Reconcile(ctx, w); err != nil {
			result.Failures++
			if !errors.Is(err, context.Canceled) {
				s.logger.WarnContext(ctx, "wallet reconciliation failed", "wallet", w, "error", err)
			}
		}
	}
	return result
}
