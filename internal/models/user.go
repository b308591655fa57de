package models

import "time"

// User is a registered account.
//
// Users are created by registration only and are never updated or deleted
// through the API.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the normalized (trimmed, lowercase) address. Unique.
	Email string `json:"email"`

	// PasswordHash is the bcrypt digest of the password. Never serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser builds a User for registration. The ID is assigned by the store.
func NewUser(email, passwordHash string, now time.Time) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}
}
