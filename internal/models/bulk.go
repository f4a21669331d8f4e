package models

import (
	"encoding/json"
	"time"
)

// BulkOperationType enumerates the bulk assignment operations.
type BulkOperationType string

const (
	BulkOpAssignToStudents BulkOperationType = "ASSIGN_TO_STUDENTS"
	BulkOpAssignMaterials  BulkOperationType = "ASSIGN_MATERIALS"
	BulkOpAssignToClass    BulkOperationType = "ASSIGN_TO_CLASS"
	BulkOpRemove           BulkOperationType = "REMOVE"
)

// BulkOperationStatus is the audit record state machine:
// PENDING -> PROCESSING -> {COMPLETED | PARTIAL_FAILURE | FAILED}.
type BulkOperationStatus string

const (
	BulkStatusPending        BulkOperationStatus = "PENDING"
	BulkStatusProcessing     BulkOperationStatus = "PROCESSING"
	BulkStatusCompleted      BulkOperationStatus = "COMPLETED"
	BulkStatusPartialFailure BulkOperationStatus = "PARTIAL_FAILURE"
	BulkStatusFailed         BulkOperationStatus = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s BulkOperationStatus) Terminal() bool {
	switch s {
	case BulkStatusCompleted, BulkStatusPartialFailure, BulkStatusFailed:
		return true
	}
	return false
}

// FailedTarget pairs a target with the reason its mutation failed.
type FailedTarget struct {
	AssignmentTarget
	Reason string `json:"reason"`
}

// BulkOperationMetadata captures the request parameters verbatim for
// traceability. Stored as JSONB on the audit record.
type BulkOperationMetadata struct {
	MaterialID   string   `json:"material_id,omitempty"`
	MaterialIDs  []string `json:"material_ids,omitempty"`
	StudentID    string   `json:"student_id,omitempty"`
	StudentIDs   []string `json:"student_ids,omitempty"`
	ClassID      string   `json:"class_id,omitempty"`
	SkipExisting bool     `json:"skip_existing"`
	Notify       bool     `json:"notify"`
}

// BulkAuditRecord is the durable record of one bulk operation.
type BulkAuditRecord struct {
	ID              string              `db:"id" json:"id"`
	PerformedBy     string              `db:"performed_by" json:"performed_by"`
	OperationType   BulkOperationType   `db:"operation_type" json:"operation_type"`
	Status          BulkOperationStatus `db:"status" json:"status"`
	Metadata        []byte              `db:"metadata" json:"-"`
	TotalItems      int                 `db:"total_items" json:"total_items"`
	CreatedCount    int                 `db:"created_count" json:"created_count"`
	SkippedCount    int                 `db:"skipped_count" json:"skipped_count"`
	FailedCount     int                 `db:"failed_count" json:"failed_count"`
	ErrorMessage    *string             `db:"error_message" json:"error_message,omitempty"`
	FailedItems     []byte              `db:"failed_items" json:"-"`
	StartedAt       time.Time           `db:"started_at" json:"started_at"`
	CompletedAt     *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
	DurationSeconds *float64            `db:"duration_seconds" json:"duration_seconds,omitempty"`
}

// SetMetadata marshals the typed metadata onto the record.
func (r *BulkAuditRecord) SetMetadata(meta BulkOperationMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	r.Metadata = raw
	return nil
}

// DecodeMetadata returns the typed metadata stored on the record.
func (r *BulkAuditRecord) DecodeMetadata() (BulkOperationMetadata, error) {
	var meta BulkOperationMetadata
	if len(r.Metadata) == 0 {
		return meta, nil
	}
	err := json.Unmarshal(r.Metadata, &meta)
	return meta, err
}

// SetFailedItems marshals the failed target list onto the record.
func (r *BulkAuditRecord) SetFailedItems(items []FailedTarget) error {
	if len(items) == 0 {
		r.FailedItems = nil
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	r.FailedItems = raw
	return nil
}

// DecodeFailedItems returns the failed target list stored on the record.
func (r *BulkAuditRecord) DecodeFailedItems() ([]FailedTarget, error) {
	if len(r.FailedItems) == 0 {
		return nil, nil
	}
	var items []FailedTarget
	err := json.Unmarshal(r.FailedItems, &items)
	return items, err
}

// BulkAuditFilter narrows audit trail listings.
type BulkAuditFilter struct {
	PerformedBy   string
	OperationType BulkOperationType
	Status        BulkOperationStatus
	Page          int
	PageSize      int
}
