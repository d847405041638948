package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/service"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/httputil"
	authmw "namecart/pkg/platform/middleware/auth"
	pkgstrings "namecart/pkg/platform/strings"
	"namecart/pkg/requestcontext"
)

const maxCheckoutDomains = 50

// Service is the fulfillment surface exposed over HTTP.
type Service interface {
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error)
	Transfer(ctx context.Context, domainName, walletAddress, operationID string) (*models.TransferResult, error)
	HandleFailedMint(ctx context.Context, req service.CompensationRequest) (*models.CompensationResult, error)
	Reconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error)
	ForceReconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error)
	Operations(ctx context.Context, walletAddress string) ([]models.DomainOperation, error)
	Sweep(ctx context.Context) (*models.SweepResult, error)
	ReconcileWallets(ctx context.Context, wallets []string) *models.SweepResult
}

type Handler struct {
	service Service
	logger  *slog.Logger
	devMode bool
}

func New(service Service, logger *slog.Logger, devMode bool) *Handler {
	return &Handler{service: service, logger: logger, devMode: devMode}
}

// Register mounts the wallet-facing fulfillment endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkout", h.HandleCheckout)
	r.Post("/transfer", h.HandleTransfer)
	r.Post("/failed-mint", h.HandleFailedMint)
	r.Get("/wallets/{wallet}/operations", h.HandleOperations)
}

// RegisterAdmin mounts operator endpoints. The caller wraps r with the admin
// middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/reconcile", h.HandleAdminReconcile)
}

type CheckoutRequest struct {
	Domains          []models.DomainRequest `json:"domains"`
	Wallet           string                 `json:"wallet,omitempty"`
	PaymentConfirmed bool                   `json:"payment_confirmed"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
}

func (r *CheckoutRequest) Normalize() {
	r.Wallet = strings.TrimSpace(r.Wallet)
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	for i := range r.Domains {
		r.Domains[i].DomainName = strings.TrimSpace(r.Domains[i].DomainName)
		r.Domains[i].OperationID = strings.TrimSpace(r.Domains[i].OperationID)
	}
}

func (r *CheckoutRequest) Validate() error {
	if len(r.Domains) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one domain is required")
	}
	if len(r.Domains) > maxCheckoutDomains {
		return dErrors.New(dErrors.CodeValidation, "too many domains in one checkout")
	}
	return nil
}

type TransferRequest struct {
	Domain      string `json:"domain"`
	Wallet      string `json:"wallet,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
}

func (r *TransferRequest) Normalize() {
	r.Domain = strings.TrimSpace(r.Domain)
	r.Wallet = strings.TrimSpace(r.Wallet)
	r.OperationID = strings.TrimSpace(r.OperationID)
}

func (r *TransferRequest) Validate() error {
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required")
	}
	return nil
}

type FailedMintRequest struct {
	Domain           string `json:"domain"`
	OperationID      string `json:"operation_id"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Wallet           string `json:"wallet,omitempty"`
}

func (r *FailedMintRequest) Normalize() {
	r.Domain = strings.TrimSpace(r.Domain)
	r.OperationID = strings.TrimSpace(r.OperationID)
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	r.Wallet = strings.TrimSpace(r.Wallet)
}

func (r *FailedMintRequest) Validate() error {
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required")
	}
	if r.OperationID == "" {
		return dErrors.New(dErrors.CodeValidation, "operation_id is required")
	}
	return nil
}

type AdminReconcileRequest struct {
	Wallets []string `json:"wallets,omitempty"`
}

func (r *AdminReconcileRequest) Normalize() {
	r.Wallets = pkgstrings.DedupeAndTrimLower(r.Wallets)
}

func (r *AdminReconcileRequest) Validate() error { return nil }

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckoutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet, err := authmw.ResolveWallet(ctx, req.Wallet, h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Checkout(ctx, models.CheckoutRequest{
		Domains:          req.Domains,
		WalletAddress:    wallet.String(),
		PaymentConfirmed: req.PaymentConfirmed,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "checkout rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "checkout processed",
		"request_id", requestID,
		"wallet", wallet.String(),
		"domains", len(req.Domains),
		"outcome", res.Outcome,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleTransfer answers 200 for both outcomes of a transfer; OK=false with a
// reason is the "try again later" answer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet, err := authmw.ResolveWallet(ctx, req.Wallet, h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Transfer(ctx, req.Domain, wallet.String(), req.OperationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "transfer failed",
			"request_id", requestID,
			"domain", req.Domain,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleFailedMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FailedMintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet, err := authmw.ResolveWallet(ctx, req.Wallet, h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.HandleFailedMint(ctx, service.CompensationRequest{
		DomainName:       req.Domain,
		OperationID:      req.OperationID,
		PaymentReference: req.PaymentReference,
		WalletAddress:    wallet.String(),
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "compensation failed",
				"request_id", requestID,
				"domain", req.Domain,
				"operation_id", req.OperationID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "failed mint handled",
		"request_id", requestID,
		"domain", req.Domain,
		"operation_id", req.OperationID,
		"skipped", res.Skipped,
		"domain_returned", res.DomainReturned,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleOperations reconciles the wallet against the registrar and returns
// its records. ?force=true ignores the debounce window; ?cached=true skips
// the registrar and returns stored records as they are.
func (h *Handler) HandleOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	wallet, err := authmw.ResolveWallet(ctx, chi.URLParam(r, "wallet"), h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	if query.Get("cached") == "true" {
		ops, err := h.service.Operations(ctx, wallet.String())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if ops == nil {
			ops = []models.DomainOperation{}
		}
		httputil.WriteJSON(w, http.StatusOK, models.ReconcileResult{Wallet: wallet.String(), Operations: ops})
		return
	}

	reconcile := h.service.Reconcile
	if query.Get("force") == "true" {
		reconcile = h.service.ForceReconcile
	}
	res, err := reconcile(ctx, wallet.String())
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile failed",
			"request_id", requestID,
			"wallet", wallet.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleAdminReconcile reconciles the listed wallets, or sweeps every wallet
// with unfinished operations when the list is empty.
func (h *Handler) HandleAdminReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AdminReconcileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var res *models.SweepResult
	if len(req.Wallets) > 0 {
		res = h.service.ReconcileWallets(ctx, req.Wallets)
	} else {
		var err error
		if res, err = h.service.Sweep(ctx); err != nil {
			h.logger.ErrorContext(ctx, "sweep failed",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	}

	h.logger.InfoContext(ctx, "admin reconcile finished",
		"request_id", requestID,
		"wallets", res.Wallets,
		"failures", res.Failures,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
