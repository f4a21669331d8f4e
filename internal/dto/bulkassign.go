package dto

import "github.com/openlearn/openlearn-api/internal/models"

// BulkAssignStudentsRequest assigns one material to many students.
type BulkAssignStudentsRequest struct {
	MaterialID   string   `json:"material_id" validate:"required"`
	StudentIDs   []string `json:"student_ids" validate:"required,min=1"`
	SkipExisting *bool    `json:"skip_existing,omitempty"`
	Notify       bool     `json:"notify"`
}

// BulkAssignMaterialsRequest assigns many materials to one student.
type BulkAssignMaterialsRequest struct {
	MaterialIDs  []string `json:"material_ids" validate:"required,min=1"`
	StudentID    string   `json:"student_id" validate:"required"`
	SkipExisting *bool    `json:"skip_existing,omitempty"`
	Notify       bool     `json:"notify"`
}

// BulkAssignClassRequest fans many materials out to a class roster.
type BulkAssignClassRequest struct {
	MaterialIDs  []string `json:"material_ids" validate:"required,min=1"`
	ClassID      string   `json:"class_id" validate:"required"`
	SkipExisting *bool    `json:"skip_existing,omitempty"`
	Notify       bool     `json:"notify"`
}

// BulkRemoveRequest removes assignments by material and/or student axis.
// At least one of the two sets must be supplied.
type BulkRemoveRequest struct {
	MaterialIDs []string `json:"material_ids,omitempty"`
	StudentIDs  []string `json:"student_ids,omitempty"`
}

// PreflightRequest is the read-only dry-run payload. Operation selects which
// execution shape the caller intends to run.
type PreflightRequest struct {
	Operation   models.BulkOperationType `json:"operation" validate:"required"`
	MaterialID  string                   `json:"material_id,omitempty"`
	MaterialIDs []string                 `json:"material_ids,omitempty"`
	StudentID   string                   `json:"student_id,omitempty"`
	StudentIDs  []string                 `json:"student_ids,omitempty"`
	ClassID     string                   `json:"class_id,omitempty"`
}

// BulkRequest is the normalised internal form shared by the validator and the
// orchestrator.
type BulkRequest struct {
	Operation   models.BulkOperationType
	MaterialIDs []string
	StudentIDs  []string
	ClassID     string
}

// PreflightResult reports validity and scope without mutating state.
type PreflightResult struct {
	Valid             bool     `json:"valid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	TotalItems        int      `json:"total_items"`
	AffectedStudents  []string `json:"affected_students"`
	AffectedMaterials []string `json:"affected_materials"`
}

// FailedItem reports one target that could not be mutated.
type FailedItem struct {
	MaterialID string `json:"material_id"`
	StudentID  string `json:"student_id"`
	Reason     string `json:"reason"`
}

// BulkOperationResult is returned by every execution call.
type BulkOperationResult struct {
	AuditID     string                     `json:"audit_id"`
	Status      models.BulkOperationStatus `json:"status"`
	TotalItems  int                        `json:"total_items"`
	Created     int                        `json:"created"`
	Skipped     int                        `json:"skipped"`
	Failed      int                        `json:"failed"`
	FailedItems []FailedItem               `json:"failed_items,omitempty"`
}

// AuditRecordView is the API projection of a bulk audit record.
type AuditRecordView struct {
	models.BulkAuditRecord
	Metadata    models.BulkOperationMetadata `json:"metadata"`
	FailedItems []models.FailedTarget        `json:"failed_items,omitempty"`
}
