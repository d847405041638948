package testutil

import (
	"net/http"
	"time"

	"namecart/pkg/domain"
	"namecart/pkg/requestcontext"
)

// WithWallet simulates the wallet auth middleware. Invalid addresses are
// ignored so tests can exercise the anonymous path.
func WithWallet(req *http.Request, wallet string) *http.Request {
	w, err := domain.ParseWalletAddress(wallet)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithWallet(req.Context(), w.String()))
}

// WithTime pins the request clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
