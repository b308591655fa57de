// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/nutrimed/internal/models"
)

var (
	// ErrNotFound is returned when a lookup or an owner-scoped mutation
	// matches no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned by CreateUser when the email is taken.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrOwnerNotFound is returned by CreateAnalysis when the owner does not exist.
	ErrOwnerNotFound = errors.New("owner does not exist")
)

// UserStore persists user accounts. Emails are passed already normalized.
type UserStore interface {
	// CreateUser persists a new user. ID is generated when empty.
	// Returns ErrDuplicateEmail if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user has this email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound when no user has this ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AnalysisStore persists saved analyses. Every method is scoped to an owner.
type AnalysisStore interface {
	// ListAnalyses returns up to limit of the owner's records, newest first.
	ListAnalyses(ctx context.Context, ownerID string, limit int) ([]*models.Analysis, error)

	// CreateAnalysis persists a new record. ID and CreatedAt are generated
	// when empty. Returns ErrOwnerNotFound if OwnerID references no user.
	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error

	// RenameAnalysis changes the dish name of one of the owner's records.
	// Returns ErrNotFound when the record is missing or owned by someone else.
	RenameAnalysis(ctx context.Context, id, ownerID, dishName string) error

	// DeleteAnalysis removes one of the owner's records.
	// Returns ErrNotFound when the record is missing or owned by someone else.
	DeleteAnalysis(ctx context.Context, id, ownerID string) error

	// DeleteAllAnalyses removes every record of the owner and reports how many.
	DeleteAllAnalyses(ctx context.Context, ownerID string) (int64, error)
}

// Store is a complete storage backend. Implementations exist for SQLite
// (single instance) and PostgreSQL (shared database).
type Store interface {
	UserStore
	AnalysisStore

	// Migrate brings the schema up to date. Called once at startup.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
