package sqlite

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

// ListAnalyses retrieves the owner's most recent analyses.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, ownerID string, limit int) ([]*models.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, dish_name, analysis_text, preview, created_at
		 FROM analyses WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*models.Analysis, 0)
	for rows.Next() {
		a := &models.Analysis{}
		var preview sql.NullString
		var createdAt int64

		if err := rows.Scan(&a.ID, &a.OwnerID, &a.DishName, &a.Text, &preview, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if preview.Valid {
			a.Preview = &preview.String
		}
		a.CreatedAt = fromUnix(createdAt)

		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return analyses, nil
}

// CreateAnalysis persists a new analysis.
func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO analyses (id, owner_id, dish_name, analysis_text, preview, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.OwnerID, a.DishName, a.Text, a.Preview, toUnix(a.CreatedAt),
		)
		if isForeignKeyViolation(err) {
			return storage.ErrOwnerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to insert analysis: %w", err)
		}
		return nil
	})
}

// RenameAnalysis updates the dish name. The ownership check is part of the
// UPDATE itself, so there is no window between check and write.
func (s *SQLiteStore) RenameAnalysis(ctx context.Context, id, ownerID, dishName string) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx,
			"UPDATE analyses SET dish_name = ? WHERE id = ? AND owner_id = ?",
			dishName, id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("failed to rename analysis: %w", err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// DeleteAnalysis removes a single analysis owned by ownerID.
func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id, ownerID string) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx,
			"DELETE FROM analyses WHERE id = ? AND owner_id = ?",
			id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete analysis: %w", err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// DeleteAllAnalyses removes every analysis owned by ownerID.
func (s *SQLiteStore) DeleteAllAnalyses(ctx context.Context, ownerID string) (int64, error) {
	var deleted int64
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := dbx.ExecAffected(ctx, tx, "DELETE FROM analyses WHERE owner_id = ?", ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete analyses: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
