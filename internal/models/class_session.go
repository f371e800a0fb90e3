package models

import "time"

// ClassSession binds a class to a session with a seat capacity. There is one
// row per (class, session) pair.
type ClassSession struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Capacite  int       `db:"capacite" json:"capacite"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSessionDetail extends ClassSession with naming and occupancy info.
type ClassSessionDetail struct {
	ClassSession
	ClassName      string `db:"class_name" json:"class_name"`
	SessionName    string `db:"session_name" json:"session_name"`
	ConfirmedCount int    `db:"confirmed_count" json:"confirmed_count"`
}

// ClassSessionFilter defines filter criteria for listing class sessions.
type ClassSessionFilter struct {
	ClassID   string
	SessionID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SeatPosition is one cell of a classroom seat grid.
type SeatPosition struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Number int `json:"number"`
}
