package models

import "time"

// Session represents an academic year or cycle bounding one or more paliers.
type Session struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	InProgress bool      `db:"in_progress" json:"in_progress"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter defines filters supported by list endpoints.
type SessionFilter struct {
	Search     string
	InProgress *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
