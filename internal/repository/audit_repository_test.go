package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/openlearn-api/internal/models"
)

func newAuditMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func auditColumns() []string {
	return []string{"id", "performed_by", "operation_type", "status", "metadata", "total_items",
		"created_count", "skipped_count", "failed_count", "error_message", "failed_items",
		"started_at", "completed_at", "duration_seconds"}
}

func TestAuditRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO bulk_audit_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.BulkAuditRecord{
		PerformedBy:   "t1",
		OperationType: models.BulkOpAssignToStudents,
		TotalItems:    3,
	}
	require.NoError(t, repo.Insert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.BulkStatusPending, record.Status)
	assert.False(t, record.StartedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("UPDATE bulk_audit_records SET status").
		WithArgs("audit-1", models.BulkStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "audit-1", models.BulkStatusProcessing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryFinalize(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("UPDATE bulk_audit_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	duration := 1.5
	record := &models.BulkAuditRecord{
		ID:              "audit-1",
		Status:          models.BulkStatusCompleted,
		CreatedCount:    3,
		CompletedAt:     &now,
		DurationSeconds: &duration,
	}
	require.NoError(t, repo.Finalize(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	started := time.Now().UTC()
	mock.ExpectQuery("SELECT id, performed_by, operation_type, status, metadata").
		WithArgs("audit-1").
		WillReturnRows(sqlmock.NewRows(auditColumns()).
			AddRow("audit-1", "t1", "ASSIGN_TO_STUDENTS", "COMPLETED", []byte(`{"material_id":"m1"}`), 3,
				3, 0, 0, nil, nil, started, nil, nil))

	record, err := repo.FindByID(context.Background(), "audit-1")
	require.NoError(t, err)
	assert.Equal(t, models.BulkStatusCompleted, record.Status)

	meta, err := record.DecodeMetadata()
	require.NoError(t, err)
	assert.Equal(t, "m1", meta.MaterialID)
}

func TestAuditRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	started := time.Now().UTC()
	mock.ExpectQuery("SELECT a.id, a.performed_by, a.operation_type").
		WithArgs("t1", models.BulkStatusFailed).
		WillReturnRows(sqlmock.NewRows(auditColumns()).
			AddRow("audit-1", "t1", "REMOVE", "FAILED", nil, 2, 0, 0, 2, nil, nil, started, nil, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bulk_audit_records`).
		WithArgs("t1", models.BulkStatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.BulkAuditFilter{
		PerformedBy: "t1",
		Status:      models.BulkStatusFailed,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.BulkOpRemove, records[0].OperationType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
