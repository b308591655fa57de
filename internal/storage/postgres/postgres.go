// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface for deployments that share one database between
// several server instances.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mmynk/nutrimed/internal/storage"
	"github.com/mmynk/nutrimed/internal/storage/migrations"
)

var _ storage.Store = (*PostgresStore)(nil)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRep      = "22P02"
)

// PostgresStore implements storage.Store on PostgreSQL through pgx.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to the database identified by dsn.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// migrateUp is a seam for tests.
var migrateUp = migrations.Up

// Migrate applies the embedded PostgreSQL migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := migrateUp(ctx, s.db, migrations.Postgres); err != nil {
		return err
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
