package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlearn/openlearn-api/internal/models"
)

// AssignmentRepository persists material-student assignments. Mutating
// methods operate on a caller-owned transaction so a whole batch shares one
// commit boundary.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ExistsTx checks whether the (material, student) pair is already assigned.
func (r *AssignmentRepository) ExistsTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM material_assignments WHERE material_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := tx.GetContext(ctx, &exists, query, materialID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// CreateTx inserts a new assignment within the transaction.
func (r *AssignmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, assignment *models.MaterialAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO material_assignments (id, material_id, student_id, assigned_by, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, query, assignment.ID, assignment.MaterialID, assignment.StudentID, assignment.AssignedBy, assignment.CreatedAt); err != nil {
		return err
	}
	return nil
}

// DeleteTx removes the assignment for the pair, reporting affected rows so the
// caller can distinguish absence from removal.
func (r *AssignmentRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (int64, error) {
	const query = `DELETE FROM material_assignments WHERE material_id = $1 AND student_id = $2`
	result, err := tx.ExecContext(ctx, query, materialID, studentID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return affected, nil
}

// ListMatchingTx resolves existing assignment pairs matching either ID axis.
// Used for single-axis removals where the target set is implicit.
func (r *AssignmentRepository) ListMatchingTx(ctx context.Context, tx *sqlx.Tx, materialIDs, studentIDs []string) ([]models.AssignmentTarget, error) {
	query, args, err := matchingQuery("SELECT material_id, student_id FROM material_assignments", materialIDs, studentIDs)
	if err != nil {
		return nil, err
	}
	query += " ORDER BY material_id ASC, student_id ASC"
	rows, err := tx.QueryxContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list matching assignments: %w", err)
	}
	defer rows.Close()

	var targets []models.AssignmentTarget
	for rows.Next() {
		var target models.AssignmentTarget
		if err := rows.Scan(&target.MaterialID, &target.StudentID); err != nil {
			return nil, fmt.Errorf("scan assignment pair: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// CountMatching reports how many assignments match either ID axis. Read-only,
// used by preflight.
func (r *AssignmentRepository) CountMatching(ctx context.Context, materialIDs, studentIDs []string) (int, error) {
	query, args, err := matchingQuery("SELECT COUNT(*) FROM material_assignments", materialIDs, studentIDs)
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count matching assignments: %w", err)
	}
	return count, nil
}

// ListByStudent returns the assignments held by one student.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.MaterialAssignment, error) {
	const query = `SELECT id, material_id, student_id, assigned_by, created_at FROM material_assignments WHERE student_id = $1 ORDER BY created_at DESC`
	var assignments []models.MaterialAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	return assignments, nil
}

func matchingQuery(base string, materialIDs, studentIDs []string) (string, []interface{}, error) {
	if len(materialIDs) == 0 && len(studentIDs) == 0 {
		return "", nil, fmt.Errorf("at least one id axis is required")
	}
	query := base + " WHERE 1=1"
	var args []interface{}
	if len(materialIDs) > 0 {
		query += " AND material_id IN (?)"
		args = append(args, materialIDs)
	}
	if len(studentIDs) > 0 {
		query += " AND student_id IN (?)"
		args = append(args, studentIDs)
	}
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand assignment filter: %w", err)
	}
	return expanded, expandedArgs, nil
}
