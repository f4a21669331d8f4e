package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
)

type auditStore interface {
	Insert(ctx context.Context, record *models.BulkAuditRecord) error
	UpdateStatus(ctx context.Context, id string, status models.BulkOperationStatus) error
	Finalize(ctx context.Context, record *models.BulkAuditRecord) error
}

// AuditRecorder owns the bulk audit record lifecycle: a PENDING record is
// persisted before any assignment work starts, and Finalize always stamps a
// terminal status with completion timing.
type AuditRecorder struct {
	audits auditStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditRecorder builds a recorder instance.
func NewAuditRecorder(audits auditStore, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{audits: audits, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Begin persists a PENDING record for the operation and immediately moves it
// to PROCESSING. A crash after this point leaves the record as forensic
// evidence of the attempt.
func (r *AuditRecorder) Begin(ctx context.Context, actorID string, op models.BulkOperationType, meta models.BulkOperationMetadata, totalItems int) (*models.BulkAuditRecord, error) {
	record := &models.BulkAuditRecord{
		PerformedBy:   actorID,
		OperationType: op,
		Status:        models.BulkStatusPending,
		TotalItems:    totalItems,
		StartedAt:     r.now(),
	}
	if err := record.SetMetadata(meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode audit metadata")
	}
	if err := r.audits.Insert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create audit record")
	}
	if err := r.audits.UpdateStatus(ctx, record.ID, models.BulkStatusProcessing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark audit record processing")
	}
	record.Status = models.BulkStatusProcessing
	return record, nil
}

// Finalize derives the terminal status from the outcome, stamps completion
// timing and writes the record. errorMessage is non-empty only on fatal
// faults, which force FAILED regardless of partial counts.
func (r *AuditRecorder) Finalize(ctx context.Context, record *models.BulkAuditRecord, outcome *ExecutionOutcome, errorMessage string) error {
	if outcome == nil {
		outcome = &ExecutionOutcome{}
	}
	record.CreatedCount = len(outcome.Succeeded)
	record.SkippedCount = len(outcome.Skipped)
	record.FailedCount = len(outcome.Failed)
	// Totals always track the set the run actually resolved: a single-axis
	// removal re-resolves targets inside the transaction, and a fatal fault
	// leaves only the attempted prefix. Counts must add up either way.
	record.TotalItems = outcome.Total()
	if err := record.SetFailedItems(outcome.Failed); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode failed items")
	}

	record.Status = deriveStatus(outcome, errorMessage)
	if errorMessage != "" {
		record.ErrorMessage = &errorMessage
	}

	completedAt := r.now()
	duration := completedAt.Sub(record.StartedAt).Seconds()
	record.CompletedAt = &completedAt
	record.DurationSeconds = &duration

	if err := r.audits.Finalize(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize audit record")
	}
	return nil
}

func deriveStatus(outcome *ExecutionOutcome, errorMessage string) models.BulkOperationStatus {
	if errorMessage != "" {
		return models.BulkStatusFailed
	}
	if len(outcome.Failed) == 0 {
		return models.BulkStatusCompleted
	}
	if len(outcome.Succeeded)+len(outcome.Skipped) > 0 {
		return models.BulkStatusPartialFailure
	}
	return models.BulkStatusFailed
}
