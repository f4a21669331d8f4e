package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlearn/openlearn-api/internal/models"
)

// AuditRepository persists the durable trail of bulk operations.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert persists a fresh audit record. The record is written before any
// assignment work starts so a crash still leaves forensic evidence.
func (r *AuditRepository) Insert(ctx context.Context, record *models.BulkAuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.BulkStatusPending
	}
	const query = `INSERT INTO bulk_audit_records
        (id, performed_by, operation_type, status, metadata, total_items, created_count, skipped_count, failed_count, started_at)
        VALUES (:id, :performed_by, :operation_type, :status, :metadata, :total_items, :created_count, :skipped_count, :failed_count, :started_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// UpdateStatus moves a non-terminal record forward in its lifecycle.
func (r *AuditRepository) UpdateStatus(ctx context.Context, id string, status models.BulkOperationStatus) error {
	const query = `UPDATE bulk_audit_records SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	return nil
}

// Finalize writes the terminal state, counters and timing in one statement.
func (r *AuditRepository) Finalize(ctx context.Context, record *models.BulkAuditRecord) error {
	const query = `UPDATE bulk_audit_records
        SET status = :status,
            created_count = :created_count,
            skipped_count = :skipped_count,
            failed_count = :failed_count,
            error_message = :error_message,
            failed_items = :failed_items,
            completed_at = :completed_at,
            duration_seconds = :duration_seconds
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("finalize audit record: %w", err)
	}
	return nil
}

// FindByID returns an audit record by its ID.
func (r *AuditRepository) FindByID(ctx context.Context, id string) (*models.BulkAuditRecord, error) {
	const query = `SELECT id, performed_by, operation_type, status, metadata, total_items, created_count, skipped_count, failed_count,
        error_message, failed_items, started_at, completed_at, duration_seconds
        FROM bulk_audit_records WHERE id = $1`
	var record models.BulkAuditRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns audit records filtered for operational querying, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.BulkAuditFilter) ([]models.BulkAuditRecord, int, error) {
	base := "FROM bulk_audit_records a"
	var conditions []string
	var args []interface{}

	if filter.PerformedBy != "" {
		conditions = append(conditions, fmt.Sprintf("a.performed_by = $%d", len(args)+1))
		args = append(args, filter.PerformedBy)
	}
	if filter.OperationType != "" {
		conditions = append(conditions, fmt.Sprintf("a.operation_type = $%d", len(args)+1))
		args = append(args, filter.OperationType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.performed_by, a.operation_type, a.status, a.metadata, a.total_items,
        a.created_count, a.skipped_count, a.failed_count, a.error_message, a.failed_items,
        a.started_at, a.completed_at, a.duration_seconds
        %s ORDER BY a.started_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var records []models.BulkAuditRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}
	return records, total, nil
}
