package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlearn/openlearn-api/internal/models"
)

// ProgressRepository maintains the companion progress record per assignment.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// InitTx seeds a NOT_STARTED progress row for the pair inside the caller's
// transaction. Re-initialisation is a no-op.
func (r *ProgressRepository) InitTx(ctx context.Context, tx *sqlx.Tx, studentID, materialID string) error {
	const query = `INSERT INTO material_progress (id, student_id, material_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, material_id) DO NOTHING`
	_, err := tx.ExecContext(ctx, query, uuid.NewString(), studentID, materialID, models.ProgressNotStarted, time.Now().UTC())
	return err
}
