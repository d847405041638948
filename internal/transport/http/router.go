package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namecart/pkg/platform/httputil"
	adminmw "namecart/pkg/platform/middleware/admin"
	authmw "namecart/pkg/platform/middleware/auth"
	"namecart/pkg/platform/middleware/request"
	"namecart/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar mounts operator routes behind the admin token.
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// Deps holds what the router mounts. Nil Validator means development mode:
// wallet routes are reachable without a token. RateLimit, when set, wraps
// the wallet routes after authentication.
type Deps struct {
	Logger         *slog.Logger
	Validator      authmw.WalletValidator
	AdminTokenHash string
	Metrics        http.Handler
	Health         func(ctx context.Context) error
	RateLimit      func(http.Handler) http.Handler
	Modules        []Registrar
	Admin          []AdminRegistrar
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)

	r.Get("/health", healthHandler(d.Health))
	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		if d.Validator != nil {
			r.Use(authmw.RequireWallet(d.Validator, d.Logger))
		}
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}
		for _, m := range d.Modules {
			m.Register(r)
		}
	})

	if d.AdminTokenHash != "" {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.AdminTokenHash, d.Logger))
			for _, m := range d.Admin {
				m.RegisterAdmin(r)
			}
		})
	} else if len(d.Admin) > 0 {
		d.Logger.Warn("admin token hash not configured, admin routes disabled")
	}
	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
