package models

import "time"

// PalierStatus represents the lifecycle state of a palier.
type PalierStatus string

const (
	PalierStatusPlanned  PalierStatus = "PLANNED"
	PalierStatusActive   PalierStatus = "ACTIVE"
	PalierStatusFinished PalierStatus = "FINISHED"
)

// Palier models a sub-period of a session, such as a trimester.
type Palier struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	SessionID string       `db:"session_id" json:"session_id"`
	StartDate time.Time    `db:"start_date" json:"start_date"`
	EndDate   time.Time    `db:"end_date" json:"end_date"`
	Status    PalierStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// PalierDetail enriches Palier with its session name.
type PalierDetail struct {
	Palier
	SessionName string `db:"session_name" json:"session_name"`
}

// PalierFilter provides filters for listing paliers.
type PalierFilter struct {
	SessionID string
	Status    PalierStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
