package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"namecart/internal/reservation/models"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/platform/httputil"
	authmw "namecart/pkg/platform/middleware/auth"
	"namecart/pkg/requestcontext"
)

// Service defines the reservation operations exposed over HTTP.
type Service interface {
	Reserve(ctx context.Context, domainName, userID string) (*models.Reservation, error)
	Release(ctx context.Context, domainName, userID string) error
	IsReserved(ctx context.Context, domainName string) (bool, string, error)
	ReleaseAll(ctx context.Context, userID string) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	// devMode lets anonymous callers name their wallet.
	devMode bool
}

func New(service Service, logger *slog.Logger, devMode bool) *Handler {
	return &Handler{service: service, logger: logger, devMode: devMode}
}

// Register mounts reservation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reservations", h.HandleReserve)
	r.Get("/reservations/{domain}", h.HandleIsReserved)
	r.Delete("/reservations/{domain}", h.HandleRelease)
	r.Delete("/reservations", h.HandleReleaseAll)
}

type ReserveRequest struct {
	Domain string `json:"domain"`
	Wallet string `json:"wallet,omitempty"`
}

func (r *ReserveRequest) Normalize() {
	r.Domain = strings.TrimSpace(r.Domain)
	r.Wallet = strings.TrimSpace(r.Wallet)
}

func (r *ReserveRequest) Validate() error {
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required")
	}
	return nil
}

type StatusResponse struct {
	Domain   string `json:"domain"`
	Reserved bool   `json:"reserved"`
	Owner    string `json:"owner,omitempty"`
}

type ReleaseAllResponse struct {
	Released int `json:"released"`
}

func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReserveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet, err := authmw.ResolveWallet(ctx, req.Wallet, h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Reserve(ctx, req.Domain, wallet.String())
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "reserve failed",
				"request_id", requestID,
				"domain", req.Domain,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "domain reserved",
		"request_id", requestID,
		"domain", res.DomainName,
		"expires_at", res.ExpiresAt,
	)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleIsReserved is public: the owner address is what a cart needs to show
// "held by you" versus "held by someone else".
func (h *Handler) HandleIsReserved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "domain")

	reserved, owner, err := h.service.IsReserved(ctx, name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Domain:   strings.ToLower(strings.TrimSpace(name)),
		Reserved: reserved,
		Owner:    owner,
	})
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := authmw.ResolveWallet(ctx, r.URL.Query().Get("wallet"), h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Release(ctx, chi.URLParam(r, "domain"), wallet.String()); err != nil {
		h.logger.WarnContext(ctx, "release failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleReleaseAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := authmw.ResolveWallet(ctx, r.URL.Query().Get("wallet"), h.devMode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	n, err := h.service.ReleaseAll(ctx, wallet.String())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReleaseAllResponse{Released: n})
}
