package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/models"
)

type assignmentTxStore interface {
	ExistsTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, assignment *models.MaterialAssignment) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, materialID, studentID string) (int64, error)
	ListMatchingTx(ctx context.Context, tx *sqlx.Tx, materialIDs, studentIDs []string) ([]models.AssignmentTarget, error)
}

type progressTxStore interface {
	InitTx(ctx context.Context, tx *sqlx.Tx, studentID, materialID string) error
}

// ExecOptions tunes one executor run.
type ExecOptions struct {
	// SkipExisting treats an already-assigned pair as a non-error no-op.
	SkipExisting bool
	AssignedBy   string
}

// ExecutionOutcome aggregates per-target results. Succeeded holds the pairs
// whose mutation applied: created assignments on an assign run, removed
// assignments on a removal run.
type ExecutionOutcome struct {
	Succeeded []models.AssignmentTarget
	Skipped   []models.AssignmentTarget
	Failed    []models.FailedTarget
}

// Total returns the number of targets the run touched.
func (o *ExecutionOutcome) Total() int {
	return len(o.Succeeded) + len(o.Skipped) + len(o.Failed)
}

// AssignmentExecutor applies a batch of assignment mutations inside one
// caller-owned transaction. Business-rule failures on individual targets are
// recorded and the batch continues; only system-level faults return an error,
// which the caller must treat as fatal and roll back on.
type AssignmentExecutor struct {
	assignments assignmentTxStore
	progress    progressTxStore
	logger      *zap.Logger
}

// NewAssignmentExecutor builds an executor instance.
func NewAssignmentExecutor(assignments assignmentTxStore, progress progressTxStore, logger *zap.Logger) *AssignmentExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentExecutor{assignments: assignments, progress: progress, logger: logger}
}

// ExecuteAssign creates one assignment per target, in input order. The
// returned outcome is valid even when err is non-nil so the caller can record
// partial counts before rolling back.
func (e *AssignmentExecutor) ExecuteAssign(ctx context.Context, tx *sqlx.Tx, targets []models.AssignmentTarget, opts ExecOptions) (*ExecutionOutcome, error) {
	outcome := &ExecutionOutcome{}

	for _, target := range targets {
		if opts.SkipExisting {
			exists, err := e.assignments.ExistsTx(ctx, tx, target.MaterialID, target.StudentID)
			if err != nil {
				return outcome, fmt.Errorf("check existing assignment: %w", err)
			}
			if exists {
				outcome.Skipped = append(outcome.Skipped, target)
				continue
			}
		}

		assignment := &models.MaterialAssignment{
			MaterialID: target.MaterialID,
			StudentID:  target.StudentID,
			AssignedBy: opts.AssignedBy,
		}
		if err := e.assignments.CreateTx(ctx, tx, assignment); err != nil {
			if isUniqueViolation(err) && opts.SkipExisting {
				outcome.Skipped = append(outcome.Skipped, target)
				continue
			}
			if isIntegrityViolation(err) {
				outcome.Failed = append(outcome.Failed, models.FailedTarget{
					AssignmentTarget: target,
					Reason:           constraintReason(err),
				})
				continue
			}
			return outcome, fmt.Errorf("create assignment: %w", err)
		}

		// Companion progress record, best-effort within the same transaction.
		if err := e.progress.InitTx(ctx, tx, target.StudentID, target.MaterialID); err != nil {
			e.logger.Warn("failed to init progress record",
				zap.String("student_id", target.StudentID),
				zap.String("material_id", target.MaterialID),
				zap.Error(err))
		}

		outcome.Succeeded = append(outcome.Succeeded, target)
	}

	return outcome, nil
}

// ExecuteRemove deletes assignments matching the supplied ID axes. When both
// axes are present the targets are their cross-product; a single axis resolves
// to the currently matching assignment pairs. Absence of a pair is skipped,
// not failed.
func (e *AssignmentExecutor) ExecuteRemove(ctx context.Context, tx *sqlx.Tx, materialIDs, studentIDs []string) (*ExecutionOutcome, error) {
	outcome := &ExecutionOutcome{}

	var targets []models.AssignmentTarget
	if len(materialIDs) > 0 && len(studentIDs) > 0 {
		targets = make([]models.AssignmentTarget, 0, len(materialIDs)*len(studentIDs))
		for _, materialID := range materialIDs {
			for _, studentID := range studentIDs {
				targets = append(targets, models.AssignmentTarget{MaterialID: materialID, StudentID: studentID})
			}
		}
	} else {
		resolved, err := e.assignments.ListMatchingTx(ctx, tx, materialIDs, studentIDs)
		if err != nil {
			return outcome, fmt.Errorf("resolve removal targets: %w", err)
		}
		targets = resolved
	}

	for _, target := range targets {
		affected, err := e.assignments.DeleteTx(ctx, tx, target.MaterialID, target.StudentID)
		if err != nil {
			if isIntegrityViolation(err) {
				outcome.Failed = append(outcome.Failed, models.FailedTarget{
					AssignmentTarget: target,
					Reason:           constraintReason(err),
				})
				continue
			}
			return outcome, fmt.Errorf("delete assignment: %w", err)
		}
		if affected == 0 {
			outcome.Skipped = append(outcome.Skipped, target)
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, target)
	}

	return outcome, nil
}

// isIntegrityViolation reports whether the error is a database integrity
// constraint violation (SQLSTATE class 23). These are the per-item business
// failures; anything else from the driver is fatal.
func isIntegrityViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "23"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

func constraintReason(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Message != "" {
		return pqErr.Message
	}
	return err.Error()
}
