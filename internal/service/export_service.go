package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/export"
	"github.com/scolaris/scolaris-api/pkg/jobs"
	"github.com/scolaris/scolaris-api/pkg/storage"
)

type rosterReader interface {
	List(ctx context.Context, filter models.InscriptionFilter) ([]models.InscriptionDetail, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Workers   int
}

// ExportService renders class session rosters to CSV or PDF. Exports run on a
// background queue; the HTTP layer polls job state and downloads via signed
// URL.
type ExportService struct {
	roster  rosterReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	logger  *zap.Logger
	cfg     ExportConfig

	mu      sync.RWMutex
	tracked map[string]*models.ExportJob
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}

	s := &ExportService{
		roster:  roster,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		tracked: make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("roster-export", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a roster export job for a class session.
func (s *ExportService) Enqueue(ctx context.Context, classSessionID string, format models.ExportFormat) (*models.ExportJob, error) {
	if classSessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "class session id is required")
	}
	switch format {
	case models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &models.ExportJob{
		ID:             uuid.NewString(),
		ClassSessionID: classSessionID,
		Format:         format,
		Status:         models.ExportJobStatusPending,
		RequestedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster-export", Payload: job.ID}); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.snapshotJob(job.ID), nil
}

// Job returns the current state of an export job.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	job := s.snapshotJob(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) process(ctx context.Context, qj jobs.Job) error {
	jobID, _ := qj.Payload.(string)
	job := s.snapshotJob(jobID)
	if job == nil {
		return fmt.Errorf("export job %s not tracked", jobID)
	}

	s.setStatus(jobID, models.ExportJobStatusRunning, "")

	dataset, title, err := s.buildRosterDataset(ctx, job.ClassSessionID)
	if err != nil {
		s.setStatus(jobID, models.ExportJobStatusFailed, err.Error())
		return err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		s.setStatus(jobID, models.ExportJobStatusFailed, err.Error())
		return err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setStatus(jobID, models.ExportJobStatusFailed, err.Error())
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setStatus(jobID, models.ExportJobStatusFailed, err.Error())
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	url := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	now := time.Now().UTC()
	s.mu.Lock()
	if tracked, ok := s.tracked[jobID]; ok {
		tracked.Status = models.ExportJobStatusDone
		tracked.FilePath = relPath
		tracked.Token = token
		tracked.URL = url
		tracked.ExpiresAt = &expiresAt
		tracked.CompletedAt = &now
		tracked.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("roster export completed",
		zap.String("job_id", jobID),
		zap.String("class_session_id", job.ClassSessionID),
		zap.String("format", string(job.Format)))
	return nil
}

func (s *ExportService) buildRosterDataset(ctx context.Context, classSessionID string) (export.Dataset, string, error) {
	rows, _, err := s.roster.List(ctx, models.InscriptionFilter{
		ClassSessionID: classSessionID,
		PageSize:       1000,
	})
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		reinscription := "No"
		if row.Reinscription {
			reinscription = "Yes"
		}
		dataRows = append(dataRows, map[string]string{
			"Student":       row.StudentName,
			"Class":         row.ClassName,
			"Session":       row.SessionName,
			"Status":        string(row.Status),
			"Reinscription": reinscription,
			"Enrolled At":   row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Class", "Session", "Status", "Reinscription", "Enrolled At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Class Roster %s", classSessionID)
	return dataset, title, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(job.ClassSessionID), timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) snapshotJob(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) setStatus(id string, status models.ExportJobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.tracked[id]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errMsg
	if status == models.ExportJobStatusFailed {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
}
