package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/dto"
	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
)

type materialResolver interface {
	FindExisting(ctx context.Context, ids []string) (map[string]bool, error)
}

type studentResolver interface {
	FindExisting(ctx context.Context, ids []string) (map[string]bool, error)
}

type classRosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListEnrolledStudentIDs(ctx context.Context, classID string) ([]string, error)
}

type assignmentCounter interface {
	CountMatching(ctx context.Context, materialIDs, studentIDs []string) (int, error)
}

// BulkValidator performs the read-only pre-flight pass over a bulk request:
// entity existence, eligibility, roster resolution and cap checks. It never
// mutates state and is safe to call concurrently.
type BulkValidator struct {
	materials   materialResolver
	students    studentResolver
	classes     classRosterReader
	assignments assignmentCounter
	limiter     *RateLimiter
	logger      *zap.Logger
}

// NewBulkValidator builds a validator instance.
func NewBulkValidator(
	materials materialResolver,
	students studentResolver,
	classes classRosterReader,
	assignments assignmentCounter,
	limiter *RateLimiter,
	logger *zap.Logger,
) *BulkValidator {
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkValidator{
		materials:   materials,
		students:    students,
		classes:     classes,
		assignments: assignments,
		limiter:     limiter,
		logger:      logger,
	}
}

// Validate resolves the request against current persisted state and reports
// validity, warnings and scope. Only infrastructure faults return an error;
// bad input lands in the result's Errors slice.
func (v *BulkValidator) Validate(ctx context.Context, req dto.BulkRequest) (*dto.PreflightResult, error) {
	result := &dto.PreflightResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	switch req.Operation {
	case models.BulkOpAssignToStudents, models.BulkOpAssignMaterials:
		if err := v.validateDirect(ctx, req, result); err != nil {
			return nil, err
		}
	case models.BulkOpAssignToClass:
		if err := v.validateClassFanOut(ctx, req, result); err != nil {
			return nil, err
		}
	case models.BulkOpRemove:
		if err := v.validateRemove(ctx, req, result); err != nil {
			return nil, err
		}
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("unknown operation %q", req.Operation))
	}

	counts := BulkCounts{
		Materials:    len(result.AffectedMaterials),
		Students:     len(result.AffectedStudents),
		CrossProduct: result.TotalItems,
	}
	result.Errors = append(result.Errors, v.limiter.CheckLimits(req.Operation, counts)...)

	result.Valid = len(result.Errors) == 0
	return result, nil
}

func (v *BulkValidator) validateDirect(ctx context.Context, req dto.BulkRequest, result *dto.PreflightResult) error {
	if len(req.MaterialIDs) == 0 {
		result.Errors = append(result.Errors, "material_ids is required")
	}
	if len(req.StudentIDs) == 0 {
		result.Errors = append(result.Errors, "student_ids is required")
	}
	if err := v.resolveMaterials(ctx, req.MaterialIDs, result); err != nil {
		return err
	}
	if err := v.resolveStudents(ctx, req.StudentIDs, result); err != nil {
		return err
	}
	result.AffectedMaterials = req.MaterialIDs
	result.AffectedStudents = req.StudentIDs
	result.TotalItems = len(req.MaterialIDs) * len(req.StudentIDs)
	return nil
}

func (v *BulkValidator) validateClassFanOut(ctx context.Context, req dto.BulkRequest, result *dto.PreflightResult) error {
	if len(req.MaterialIDs) == 0 {
		result.Errors = append(result.Errors, "material_ids is required")
	}
	if req.ClassID == "" {
		result.Errors = append(result.Errors, "class_id is required")
		return nil
	}
	if err := v.resolveMaterials(ctx, req.MaterialIDs, result); err != nil {
		return err
	}

	if _, err := v.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			result.Errors = append(result.Errors, fmt.Sprintf("class %s not found", req.ClassID))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	roster, err := v.classes.ListEnrolledStudentIDs(ctx, req.ClassID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class roster")
	}
	if len(roster) == 0 {
		// Empty-target operations are valid but pointless.
		result.Warnings = append(result.Warnings, "no enrolled students")
	}
	result.AffectedMaterials = req.MaterialIDs
	result.AffectedStudents = roster
	result.TotalItems = len(req.MaterialIDs) * len(roster)
	return nil
}

func (v *BulkValidator) validateRemove(ctx context.Context, req dto.BulkRequest, result *dto.PreflightResult) error {
	if len(req.MaterialIDs) == 0 && len(req.StudentIDs) == 0 {
		result.Errors = append(result.Errors, "at least one of material_ids or student_ids is required")
		return nil
	}
	if err := v.resolveMaterials(ctx, req.MaterialIDs, result); err != nil {
		return err
	}
	if err := v.resolveStudents(ctx, req.StudentIDs, result); err != nil {
		return err
	}
	result.AffectedMaterials = req.MaterialIDs
	result.AffectedStudents = req.StudentIDs

	if len(req.MaterialIDs) > 0 && len(req.StudentIDs) > 0 {
		result.TotalItems = len(req.MaterialIDs) * len(req.StudentIDs)
		return nil
	}
	count, err := v.assignments.CountMatching(ctx, req.MaterialIDs, req.StudentIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count matching assignments")
	}
	result.TotalItems = count
	return nil
}

func (v *BulkValidator) resolveMaterials(ctx context.Context, ids []string, result *dto.PreflightResult) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := v.materials.FindExisting(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve materials")
	}
	for _, id := range ids {
		active, ok := existing[id]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("material %s not found", id))
			continue
		}
		if !active {
			result.Warnings = append(result.Warnings, fmt.Sprintf("material %s is inactive", id))
		}
	}
	return nil
}

func (v *BulkValidator) resolveStudents(ctx context.Context, ids []string, result *dto.PreflightResult) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := v.students.FindExisting(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	for _, id := range ids {
		active, ok := existing[id]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("student %s not found", id))
			continue
		}
		if !active {
			result.Warnings = append(result.Warnings, fmt.Sprintf("student %s is inactive", id))
		}
	}
	return nil
}
