package models

import "time"

// InscriptionStatus represents the lifecycle of an inscription.
type InscriptionStatus string

// Possible inscription statuses. Only CONFIRMED inscriptions consume seats.
const (
	InscriptionStatusConfirmed InscriptionStatus = "CONFIRMED"
	InscriptionStatusPending   InscriptionStatus = "PENDING"
	InscriptionStatusCancelled InscriptionStatus = "CANCELLED"
	InscriptionStatusSuspended InscriptionStatus = "SUSPENDED"
)

// Inscription registers a student into a class session. Students are keyed by
// their underlying user id, not the student profile id. The reinscription
// flag is derived from the student's enrollment history, never user-entered.
type Inscription struct {
	ID             string            `db:"id" json:"id"`
	StudentUserID  string            `db:"student_user_id" json:"student_user_id"`
	ClassSessionID string            `db:"class_session_id" json:"class_session_id"`
	Status         InscriptionStatus `db:"status" json:"status"`
	Reinscription  bool              `db:"reinscription" json:"reinscription"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// InscriptionDetail enriches Inscription with student and class session info.
type InscriptionDetail struct {
	Inscription
	StudentName string `db:"student_name" json:"student_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	SessionName string `db:"session_name" json:"session_name"`
}

// InscriptionFilter provides filters for listing inscriptions.
type InscriptionFilter struct {
	StudentUserID  string
	ClassSessionID string
	Status         InscriptionStatus
	Reinscription  *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
