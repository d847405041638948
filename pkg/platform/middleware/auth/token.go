package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"namecart/pkg/domain"
	dErrors "namecart/pkg/domain-errors"
)

// Claims carries the wallet a session was issued for.
type Claims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 wallet session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
}

func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken is used by tests and the operator CLI; production tokens are
// minted by the wallet session collaborator with the same key.
func (s *TokenService) GenerateToken(wallet domain.WalletAddress, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Wallet: wallet.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *TokenService) ValidateToken(tokenString string) (domain.WalletAddress, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
	}

	wallet, err := domain.ParseWalletAddress(claims.Wallet)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token wallet claim is invalid")
	}
	return wallet, nil
}
