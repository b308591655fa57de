package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/auth"
	"github.com/mmynk/nutrimed/internal/httpx"
	"github.com/mmynk/nutrimed/internal/metrics"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// ErrUnauthenticated is the single response for every rejected token, so
// callers cannot tell a missing header from a forged or expired token.
var ErrUnauthenticated = apperr.New(apperr.Unauthenticated, "could not validate credentials")

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying userID. The ID is also made
// visible to the logging middleware wrapping the request.
func WithUserID(ctx context.Context, userID string) context.Context {
	if info, ok := ctx.Value(infoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// bearerToken returns the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

// Authenticator validates bearer tokens on incoming requests.
type Authenticator struct {
	verifier auth.TokenVerifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewAuthenticator builds the auth middleware. m may be nil.
func NewAuthenticator(verifier auth.TokenVerifier, logger *slog.Logger, m *metrics.Metrics) *Authenticator {
	return &Authenticator{verifier: verifier, logger: logger, metrics: m}
}

// RequireAuth rejects requests without a valid token and stores the user ID
// in the request context otherwise.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.resolve(r)
		if err != nil {
			reason := metrics.ReasonInvalidToken
			if errors.Is(err, auth.ErrMissingToken) {
				reason = metrics.ReasonMissingToken
			}
			a.metrics.AuthFailure(reason)
			a.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "reason", reason, "error", err)
			httpx.WriteError(w, r, a.logger, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth stores the user ID when a valid token is present and lets
// every request through.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := a.resolve(r); err == nil {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (string, error) {
	token, err := bearerToken(r)
	if err != nil {
		return "", err
	}
	return a.verifier.Validate(token)
}
