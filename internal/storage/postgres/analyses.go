package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/nutrimed/internal/dbx"
	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/storage"
)

// validID reports whether id can be compared with a UUID column. Anything
// else cannot match a row, and sending it would make PostgreSQL fail the
// whole statement with invalid_text_representation.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, ownerID string, limit int) ([]*models.Analysis, error) {
	analyses := make([]*models.Analysis, 0)
	if !validID(ownerID) {
		return analyses, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, dish_name, analysis_text, preview, created_at
		 FROM analyses WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.Analysis{}
		var preview sql.NullString
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.DishName, &a.Text, &preview, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if preview.Valid {
			a.Preview = &preview.String
		}
		a.CreatedAt = a.CreatedAt.UTC()
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return analyses, nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	if !validID(a.OwnerID) {
		return storage.ErrOwnerNotFound
	}
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO analyses (id, owner_id, dish_name, analysis_text, preview, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.OwnerID, a.DishName, a.Text, a.Preview, a.CreatedAt,
		)
		switch pgCode(err) {
		case "":
		case codeForeignKeyViolation, codeInvalidTextRep:
			return storage.ErrOwnerNotFound
		}
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) RenameAnalysis(ctx context.Context, id, ownerID, dishName string) error {
	if !validID(id) || !validID(ownerID) {
		return storage.ErrNotFound
	}
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx,
			`UPDATE analyses SET dish_name = $1 WHERE id = $2 AND owner_id = $3`,
			dishName, id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return storage.ErrNotFound
	}
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx,
			`DELETE FROM analyses WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) DeleteAllAnalyses(ctx context.Context, ownerID string) (int64, error) {
	if !validID(ownerID) {
		return 0, nil
	}
	var deleted int64
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx, `DELETE FROM analyses WHERE owner_id = $1`, ownerID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		deleted = n
		return nil
	})
	return deleted, err
}
