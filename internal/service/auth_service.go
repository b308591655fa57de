package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/auth"
	"github.com/mmynk/nutrimed/internal/metrics"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/storage"
)

// ErrUnauthenticated is returned when a handler that needs a user runs
// without one, or the token names a user that no longer exists.
var ErrUnauthenticated = apperr.New(apperr.Unauthenticated, "not authenticated")

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService implements account registration, login and identity lookup.
type AuthService struct {
	authenticator auth.Authenticator
	tokens        auth.TokenIssuer
	users         auth.UserStorage
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewAuthService creates a new authentication service. m may be nil.
func NewAuthService(authenticator auth.Authenticator, tokens auth.TokenIssuer, users auth.UserStorage, logger *slog.Logger, m *metrics.Metrics) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		tokens:        tokens,
		users:         users,
		logger:        logger,
		metrics:       m,
	}
}

// Register creates a new user account and issues its first token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.InfoContext(ctx, "Register request", "email", auth.NormalizeEmail(email))

	user, err := s.authenticator.Register(ctx, email, password)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.InvalidInput:
			s.metrics.AuthFailure(metrics.ReasonInvalidInput)
			s.logger.InfoContext(ctx, "Registration rejected", "email", auth.NormalizeEmail(email), "error", err)
		case apperr.DuplicateEmail:
			s.metrics.AuthFailure(metrics.ReasonDuplicateEmail)
			s.logger.InfoContext(ctx, "Registration rejected", "email", auth.NormalizeEmail(email), "error", err)
		default:
			s.logger.ErrorContext(ctx, "Registration failed", "email", auth.NormalizeEmail(email), "error", err)
		}
		return nil, err
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered successfully", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// Login authenticates a user and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if apperr.KindOf(err) == apperr.InvalidCredentials {
			s.metrics.AuthFailure(metrics.ReasonInvalidCredentials)
			s.logger.WarnContext(ctx, "Login failed", "email", auth.NormalizeEmail(email))
			return nil, auth.ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "Login failed", "email", auth.NormalizeEmail(email), "error", err)
		return nil, err
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User logged in successfully", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// CurrentUser returns the user resolved by the auth middleware.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}
	s.metrics.TokenIssued()
	return &AuthResult{Token: token, User: user}, nil
}
