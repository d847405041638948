package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
	"namecart/pkg/requestcontext"
)

const testWallet = domain.WalletAddress("0x52908400098527886e0f7030069857d2e4169ee7")

func newProtected(t *testing.T, svc *TokenService) (http.Handler, *string) {
	t.Helper()
	var seen string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireWallet(svc, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Wallet(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func TestRequireWallet(t *testing.T) {
	svc := NewTokenService("test-signing-key", "namecart")

	t.Run("valid token stores wallet on context", func(t *testing.T) {
		h, seen := newProtected(t, svc)
		token, err := svc.GenerateToken(testWallet, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, testWallet.String(), *seen)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		h, seen := newProtected(t, svc)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
		assert.Empty(t, *seen)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		h, _ := newProtected(t, svc)
		token, err := svc.GenerateToken(testWallet, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		h, _ := newProtected(t, svc)
		other := NewTokenService("other-key", "namecart")
		token, err := other.GenerateToken(testWallet, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenService_IssuerMismatch(t *testing.T) {
	token, err := NewTokenService("k", "someone-else").GenerateToken(testWallet, time.Minute)
	require.NoError(t, err)

	_, err = NewTokenService("k", "namecart").ValidateToken(token)
	assert.Error(t, err)
}

func TestResolveWallet(t *testing.T) {
	authed := requestcontext.WithWallet(context.Background(), testWallet.String())

	t.Run("authenticated wallet wins", func(t *testing.T) {
		w, err := ResolveWallet(authed, "", false)
		require.NoError(t, err)
		assert.Equal(t, testWallet, w)
	})

	t.Run("body wallet must match session", func(t *testing.T) {
		_, err := ResolveWallet(authed, "0x0000000000000000000000000000000000000001", false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("anonymous rejected without fallback", func(t *testing.T) {
		_, err := ResolveWallet(context.Background(), testWallet.String(), false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("fallback is validated and lowercased", func(t *testing.T) {
		w, err := ResolveWallet(context.Background(), "0x52908400098527886E0F7030069857D2E4169EE7", true)
		require.NoError(t, err)
		assert.Equal(t, testWallet, w)
	})
}
