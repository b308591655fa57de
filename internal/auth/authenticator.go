package auth

import (
	"context"

	"github.com/mmynk/nutrimed/internal/models"
)

var _ Authenticator = (*PasswordAuthenticator)(nil)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// The email is normalized before it is stored.
	Register(ctx context.Context, email, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Every failure caused by the caller's input is the same InvalidCredentials error.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// TokenIssuer mints bearer tokens for a user.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// TokenVerifier resolves a bearer token to the user ID it binds.
type TokenVerifier interface {
	Validate(token string) (string, error)
}

var (
	_ TokenIssuer   = (*JWTManager)(nil)
	_ TokenVerifier = (*JWTManager)(nil)
)
