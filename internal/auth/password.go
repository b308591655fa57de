package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/storage"
)

const (
	MinPasswordRunes = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidEmail       = apperr.New(apperr.InvalidInput, "a valid email address is required")
	ErrWeakPassword       = apperr.New(apperr.InvalidInput, "password must be at least 6 characters")
	ErrLongPassword       = apperr.New(apperr.InvalidInput, "password must be at most 72 bytes")
	ErrEmailExists        = apperr.New(apperr.DuplicateEmail, "email already registered")
	ErrInvalidCredentials = apperr.New(apperr.InvalidCredentials, "invalid email or password")
)

// PasswordHasher turns passwords into one-way digests and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns nil when password matches hash.
	Verify(hash, password string) error
}

// BcryptHasher is the default PasswordHasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h BcryptHasher) Verify(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication.
type PasswordAuthenticator struct {
	storage UserStorage
	hasher  PasswordHasher
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, hasher PasswordHasher) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		hasher:  hasher,
		now:     time.Now,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalized address.
func ValidateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if utf8.RuneCountInString(credential) < MinPasswordRunes {
		return ErrWeakPassword
	}
	if len(credential) > MaxPasswordBytes {
		return ErrLongPassword
	}
	return nil
}

// Register creates a new user account with a hashed password. Uniqueness is
// left to the store so two concurrent registrations cannot both succeed.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, credential string) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hashed, err := a.hasher.Hash(credential)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to create user", err)
	}

	user := models.NewUser(email, hashed, a.now())
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to create user", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
// An unknown email and a wrong password produce the same error, and both
// paths pay for one hash comparison.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	email = NormalizeEmail(email)

	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.compareDummy(credential)
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to look up user", err)
	}

	if err := a.hasher.Verify(user.PasswordHash, credential); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (a *PasswordAuthenticator) compareDummy(credential string) {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.hasher.Hash("timing-equalizer-password")
	})
	if a.dummyHash != "" {
		_ = a.hasher.Verify(a.dummyHash, credential)
	}
}
