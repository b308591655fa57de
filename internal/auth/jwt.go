package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/nutrimed/internal/apperr"
)

// TokenLifetime is how long an issued token stays valid. Tokens are not
// renewable; clients log in again after expiry.
const TokenLifetime = 30 * 24 * time.Hour

var (
	ErrInvalidToken = apperr.New(apperr.Unauthenticated, "invalid or expired token")
	ErrMissingToken = apperr.New(apperr.Unauthenticated, "authorization token required")
)

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// Option configures a JWTManager.
type Option func(*JWTManager)

// WithClock replaces time.Now. Tests use it to pin issuance and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

// WithTokenDuration overrides TokenLifetime.
func WithTokenDuration(d time.Duration) Option {
	return func(m *JWTManager) { m.tokenDuration = d }
}

// NewJWTManager creates a new JWT manager signing with secretKey.
// secretKey should be a strong random string (e.g., 32 bytes). Changing it
// invalidates every outstanding token.
func NewJWTManager(secretKey string, opts ...Option) *JWTManager {
	m := &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: TokenLifetime,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate creates a new token whose subject is userID.
func (m *JWTManager) Generate(userID string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and verifies a token and returns the user ID it binds.
// A token is rejected once the clock reaches its expiry.
func (m *JWTManager) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return m.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
