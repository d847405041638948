package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	request "namecart/pkg/platform/middleware/request"
	"namecart/pkg/requestcontext"
)

// WalletValidator resolves a bearer token into the wallet it was issued for.
type WalletValidator interface {
	ValidateToken(tokenString string) (domain.WalletAddress, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireWallet rejects requests without a valid bearer token and stores the
// token's wallet on the request context.
func RequireWallet(validator WalletValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			wallet, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithWallet(ctx, wallet.String())))
		})
	}
}

// ResolveWallet returns the authenticated wallet. When allowFallback is set
// (no signing key configured) an unauthenticated request may name its wallet.
func ResolveWallet(ctx context.Context, fallback string, allowFallback bool) (domain.WalletAddress, error) {
	if w := requestcontext.Wallet(ctx); w != "" {
		if fallback != "" && !strings.EqualFold(strings.TrimSpace(fallback), w) {
			return "", dErrors.New(dErrors.CodeForbidden, "wallet does not match authenticated session")
		}
		return domain.WalletAddress(w), nil
	}
	if !allowFallback {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return domain.ParseWalletAddress(fallback)
}
