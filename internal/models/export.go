package models

import "time"

// ExportFormat selects the rendered output type for roster exports.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportJobStatus tracks the lifecycle of an asynchronous export.
type ExportJobStatus string

// Export job states.
const (
	ExportJobStatusPending ExportJobStatus = "PENDING"
	ExportJobStatusRunning ExportJobStatus = "RUNNING"
	ExportJobStatusDone    ExportJobStatus = "DONE"
	ExportJobStatusFailed  ExportJobStatus = "FAILED"
)

// ExportJob describes a queued roster export and its result once rendered.
type ExportJob struct {
	ID             string          `json:"id"`
	ClassSessionID string          `json:"class_session_id"`
	Format         ExportFormat    `json:"format"`
	Status         ExportJobStatus `json:"status"`
	FilePath       string          `json:"-"`
	Token          string          `json:"token,omitempty"`
	URL            string          `json:"url,omitempty"`
	Error          string          `json:"error,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	RequestedAt    time.Time       `json:"requested_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}
