package models

import "time"

// Material is one learning material in the catalog.
type Material struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	SubjectID   *string    `db:"subject_id" json:"subject_id,omitempty"`
	Description string     `db:"description" json:"description"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// MaterialFilter narrows catalog listings.
type MaterialFilter struct {
	Search    string
	SubjectID string
	Active    *bool
	Page      int
	PageSize  int
}
