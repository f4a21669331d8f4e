package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/dto"
	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
)

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type preflightValidator interface {
	Validate(ctx context.Context, req dto.BulkRequest) (*dto.PreflightResult, error)
}

type batchExecutor interface {
	ExecuteAssign(ctx context.Context, tx *sqlx.Tx, targets []models.AssignmentTarget, opts ExecOptions) (*ExecutionOutcome, error)
	ExecuteRemove(ctx context.Context, tx *sqlx.Tx, materialIDs, studentIDs []string) (*ExecutionOutcome, error)
}

type operationRecorder interface {
	Begin(ctx context.Context, actorID string, op models.BulkOperationType, meta models.BulkOperationMetadata, totalItems int) (*models.BulkAuditRecord, error)
	Finalize(ctx context.Context, record *models.BulkAuditRecord, outcome *ExecutionOutcome, errorMessage string) error
}

type assignmentNotifier interface {
	NotifyAssigned(materialIDs, studentIDs []string) error
}

type bulkMetrics interface {
	ObserveBulkOperation(op models.BulkOperationType, status models.BulkOperationStatus, outcome *ExecutionOutcome, duration time.Duration)
}

// BulkAssignmentService orchestrates bulk material assignment: preflight
// validation, rate limiting, transactional execution and the audit trail.
// Every execution call that reaches the audit Begin leaves a finalized record,
// on success, partial failure and fatal fault alike.
type BulkAssignmentService struct {
	db        txBeginner
	preflight preflightValidator
	executor  batchExecutor
	recorder  operationRecorder
	notifier  assignmentNotifier
	metrics   bulkMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkAssignmentService creates a service instance. notifier and metrics
// may be nil.
func NewBulkAssignmentService(
	db txBeginner,
	preflight preflightValidator,
	executor batchExecutor,
	recorder operationRecorder,
	notifier assignmentNotifier,
	metrics bulkMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *BulkAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkAssignmentService{
		db:        db,
		preflight: preflight,
		executor:  executor,
		recorder:  recorder,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// PreflightCheck performs the read-only dry run. It never creates an audit
// record and has no side effects.
func (s *BulkAssignmentService) PreflightCheck(ctx context.Context, req dto.PreflightRequest) (*dto.PreflightResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preflight payload")
	}
	return s.preflight.Validate(ctx, normalizePreflight(req))
}

// BulkAssignStudents assigns one material to many students.
func (s *BulkAssignmentService) BulkAssignStudents(ctx context.Context, actorID string, req dto.BulkAssignStudentsRequest) (*dto.BulkOperationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	breq := dto.BulkRequest{
		Operation:   models.BulkOpAssignToStudents,
		MaterialIDs: []string{req.MaterialID},
		StudentIDs:  req.StudentIDs,
	}
	meta := models.BulkOperationMetadata{
		MaterialID:   req.MaterialID,
		StudentIDs:   req.StudentIDs,
		SkipExisting: skipExisting(req.SkipExisting),
		Notify:       req.Notify,
	}
	return s.runAssign(ctx, actorID, breq, meta)
}

// BulkAssignMaterials assigns many materials to one student.
func (s *BulkAssignmentService) BulkAssignMaterials(ctx context.Context, actorID string, req dto.BulkAssignMaterialsRequest) (*dto.BulkOperationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	breq := dto.BulkRequest{
		Operation:   models.BulkOpAssignMaterials,
		MaterialIDs: req.MaterialIDs,
		StudentIDs:  []string{req.StudentID},
	}
	meta := models.BulkOperationMetadata{
		MaterialIDs:  req.MaterialIDs,
		StudentID:    req.StudentID,
		SkipExisting: skipExisting(req.SkipExisting),
		Notify:       req.Notify,
	}
	return s.runAssign(ctx, actorID, breq, meta)
}

// BulkAssignClass fans many materials out to the resolved class roster. This
// is the cross-product scenario subject to the combined cap.
func (s *BulkAssignmentService) BulkAssignClass(ctx context.Context, actorID string, req dto.BulkAssignClassRequest) (*dto.BulkOperationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	breq := dto.BulkRequest{
		Operation:   models.BulkOpAssignToClass,
		MaterialIDs: req.MaterialIDs,
		ClassID:     req.ClassID,
	}
	meta := models.BulkOperationMetadata{
		MaterialIDs:  req.MaterialIDs,
		ClassID:      req.ClassID,
		SkipExisting: skipExisting(req.SkipExisting),
		Notify:       req.Notify,
	}
	return s.runAssign(ctx, actorID, breq, meta)
}

// BulkRemove removes assignments along one or both ID axes.
func (s *BulkAssignmentService) BulkRemove(ctx context.Context, actorID string, req dto.BulkRemoveRequest) (*dto.BulkOperationResult, error) {
	breq := dto.BulkRequest{
		Operation:   models.BulkOpRemove,
		MaterialIDs: req.MaterialIDs,
		StudentIDs:  req.StudentIDs,
	}
	pre, err := s.preflight.Validate(ctx, breq)
	if err != nil {
		return nil, err
	}
	if !pre.Valid {
		return nil, appErrors.Clone(appErrors.ErrPreflightFailed, strings.Join(pre.Errors, "; "))
	}

	meta := models.BulkOperationMetadata{MaterialIDs: req.MaterialIDs, StudentIDs: req.StudentIDs}
	record, err := s.recorder.Begin(ctx, actorID, models.BulkOpRemove, meta, pre.TotalItems)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.failFatal(ctx, record, nil, err, start)
	}

	outcome, execErr := s.executor.ExecuteRemove(ctx, tx, req.MaterialIDs, req.StudentIDs)
	if execErr != nil {
		_ = tx.Rollback()
		return s.failFatal(ctx, record, outcome, execErr, start)
	}
	if err := tx.Commit(); err != nil {
		return s.failFatal(ctx, record, outcome, err, start)
	}

	s.finalize(ctx, record, outcome, "")
	s.observe(record, outcome, start)

	return buildResult(record, outcome), nil
}

func (s *BulkAssignmentService) runAssign(ctx context.Context, actorID string, breq dto.BulkRequest, meta models.BulkOperationMetadata) (*dto.BulkOperationResult, error) {
	pre, err := s.preflight.Validate(ctx, breq)
	if err != nil {
		return nil, err
	}
	if !pre.Valid {
		return nil, appErrors.Clone(appErrors.ErrPreflightFailed, strings.Join(pre.Errors, "; "))
	}

	record, err := s.recorder.Begin(ctx, actorID, breq.Operation, meta, pre.TotalItems)
	if err != nil {
		return nil, err
	}

	// Stable input order so failed item ordering is reproducible.
	targets := make([]models.AssignmentTarget, 0, pre.TotalItems)
	for _, materialID := range pre.AffectedMaterials {
		for _, studentID := range pre.AffectedStudents {
			targets = append(targets, models.AssignmentTarget{MaterialID: materialID, StudentID: studentID})
		}
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.failFatal(ctx, record, nil, err, start)
	}

	opts := ExecOptions{SkipExisting: meta.SkipExisting, AssignedBy: actorID}
	outcome, execErr := s.executor.ExecuteAssign(ctx, tx, targets, opts)
	if execErr != nil {
		_ = tx.Rollback()
		return s.failFatal(ctx, record, outcome, execErr, start)
	}
	if err := tx.Commit(); err != nil {
		return s.failFatal(ctx, record, outcome, err, start)
	}

	s.finalize(ctx, record, outcome, "")
	s.observe(record, outcome, start)
	s.dispatchNotification(meta.Notify, outcome)

	return buildResult(record, outcome), nil
}

// failFatal finalizes the audit record as FAILED with whatever partial counts
// are known at abort time, then surfaces the fault to the caller.
func (s *BulkAssignmentService) failFatal(ctx context.Context, record *models.BulkAuditRecord, outcome *ExecutionOutcome, cause error, start time.Time) (*dto.BulkOperationResult, error) {
	s.finalize(ctx, record, outcome, cause.Error())
	s.observe(record, outcome, start)
	return nil, appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "bulk operation failed")
}

func (s *BulkAssignmentService) finalize(ctx context.Context, record *models.BulkAuditRecord, outcome *ExecutionOutcome, errorMessage string) {
	if err := s.recorder.Finalize(ctx, record, outcome, errorMessage); err != nil {
		s.logger.Error("failed to finalize audit record",
			zap.String("audit_id", record.ID),
			zap.Error(err))
	}
}

func (s *BulkAssignmentService) observe(record *models.BulkAuditRecord, outcome *ExecutionOutcome, start time.Time) {
	if s.metrics == nil {
		return
	}
	if outcome == nil {
		outcome = &ExecutionOutcome{}
	}
	s.metrics.ObserveBulkOperation(record.OperationType, record.Status, outcome, time.Since(start))
}

// dispatchNotification fires the best-effort notification after commit.
// Failures are logged and never flip the operation's status.
func (s *BulkAssignmentService) dispatchNotification(notify bool, outcome *ExecutionOutcome) {
	if s.notifier == nil || !notify || outcome == nil || len(outcome.Succeeded) == 0 {
		return
	}
	materialIDs, studentIDs := collectAxes(outcome.Succeeded)
	if err := s.notifier.NotifyAssigned(materialIDs, studentIDs); err != nil {
		s.logger.Warn("failed to dispatch assignment notification", zap.Error(err))
	}
}

func collectAxes(targets []models.AssignmentTarget) (materialIDs, studentIDs []string) {
	materialSet := make(map[string]struct{})
	studentSet := make(map[string]struct{})
	for _, target := range targets {
		if _, ok := materialSet[target.MaterialID]; !ok {
			materialSet[target.MaterialID] = struct{}{}
			materialIDs = append(materialIDs, target.MaterialID)
		}
		if _, ok := studentSet[target.StudentID]; !ok {
			studentSet[target.StudentID] = struct{}{}
			studentIDs = append(studentIDs, target.StudentID)
		}
	}
	return materialIDs, studentIDs
}

func buildResult(record *models.BulkAuditRecord, outcome *ExecutionOutcome) *dto.BulkOperationResult {
	result := &dto.BulkOperationResult{
		AuditID:    record.ID,
		Status:     record.Status,
		TotalItems: record.TotalItems,
		Created:    len(outcome.Succeeded),
		Skipped:    len(outcome.Skipped),
		Failed:     len(outcome.Failed),
	}
	for _, failed := range outcome.Failed {
		result.FailedItems = append(result.FailedItems, dto.FailedItem{
			MaterialID: failed.MaterialID,
			StudentID:  failed.StudentID,
			Reason:     failed.Reason,
		})
	}
	return result
}

func normalizePreflight(req dto.PreflightRequest) dto.BulkRequest {
	breq := dto.BulkRequest{
		Operation:   req.Operation,
		MaterialIDs: req.MaterialIDs,
		StudentIDs:  req.StudentIDs,
		ClassID:     req.ClassID,
	}
	if req.MaterialID != "" {
		breq.MaterialIDs = append([]string{req.MaterialID}, breq.MaterialIDs...)
	}
	if req.StudentID != "" {
		breq.StudentIDs = append([]string{req.StudentID}, breq.StudentIDs...)
	}
	return breq
}

func skipExisting(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}
