package models

import "time"

// MaterialAssignment is the association of one material to one student.
type MaterialAssignment struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	AssignedBy string    `db:"assigned_by" json:"assigned_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssignmentTarget identifies one (material, student) pair inside a bulk
// operation. Ephemeral, never persisted directly.
type AssignmentTarget struct {
	MaterialID string `json:"material_id"`
	StudentID  string `json:"student_id"`
}

// ProgressStatus tracks how far a student is through a material.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

// MaterialProgress is the companion tracking record created alongside an
// assignment.
type MaterialProgress struct {
	ID         string         `db:"id" json:"id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	MaterialID string         `db:"material_id" json:"material_id"`
	Status     ProgressStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
