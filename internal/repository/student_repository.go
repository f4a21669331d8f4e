package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/openlearn/openlearn-api/internal/models"
)

// StudentRepository handles persistence of student references.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, active, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindExisting resolves which of the given student IDs exist, mapping each
// found ID to its active flag.
func (r *StudentRepository) FindExisting(ctx context.Context, ids []string) (map[string]bool, error) {
	return findExistingActive(ctx, r.db, "students", ids)
}
