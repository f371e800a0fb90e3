package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/validation"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type palierRepository interface {
	List(ctx context.Context, filter models.PalierFilter) ([]models.PalierDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Palier, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Palier, error)
	Create(ctx context.Context, palier *models.Palier) error
	Update(ctx context.Context, palier *models.Palier) error
	Delete(ctx context.Context, id string) error
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// CreatePalierRequest describes payload for creating paliers. Dates are
// accepted in either ISO or localized form and canonicalized before any
// comparison.
type CreatePalierRequest struct {
	Name      string              `json:"name" validate:"required"`
	SessionID string              `json:"session_id" validate:"required"`
	StartDate string              `json:"start_date" validate:"required"`
	EndDate   string              `json:"end_date" validate:"required"`
	Status    models.PalierStatus `json:"status"`
}

// UpdatePalierRequest updates mutable fields on a palier.
type UpdatePalierRequest struct {
	Name      string              `json:"name" validate:"required"`
	SessionID string              `json:"session_id" validate:"required"`
	StartDate string              `json:"start_date" validate:"required"`
	EndDate   string              `json:"end_date" validate:"required"`
	Status    models.PalierStatus `json:"status"`
}

// PalierService orchestrates palier workflows around the period validator.
type PalierService struct {
	repo      palierRepository
	sessions  sessionReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPalierService creates a new palier service instance. metrics may be nil.
func NewPalierService(repo palierRepository, sessions sessionReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PalierService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PalierService{repo: repo, sessions: sessions, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated paliers.
func (s *PalierService) List(ctx context.Context, filter models.PalierFilter) ([]models.PalierDetail, *models.Pagination, error) {
	paliers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list paliers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return paliers, pagination, nil
}

// ListBySession returns every palier of one session, unpaginated, for the
// session planning screen.
func (s *PalierService) ListBySession(ctx context.Context, sessionID string) ([]models.Palier, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	paliers, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session paliers")
	}
	return paliers, nil
}

// Get returns a palier by ID.
func (s *PalierService) Get(ctx context.Context, id string) (*models.Palier, error) {
	palier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "palier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load palier")
	}
	return palier, nil
}

// Create adds a new palier after checking containment in the parent session
// and overlap against sibling paliers.
func (s *PalierService) Create(ctx context.Context, req CreatePalierRequest) (*models.Palier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid palier payload")
	}

	start, end, err := s.checkPeriod(ctx, req.SessionID, req.StartDate, req.EndDate, "")
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.PalierStatusPlanned
	}

	palier := &models.Palier{
		Name:      req.Name,
		SessionID: req.SessionID,
		StartDate: start,
		EndDate:   end,
		Status:    status,
	}

	if err := s.repo.Create(ctx, palier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create palier")
	}
	return palier, nil
}

// Update modifies a palier record. The palier under edit is excluded from the
// overlap scan so an unchanged resubmission never conflicts with itself, and
// a changed parent session is validated against the new session's bounds.
func (s *PalierService) Update(ctx context.Context, id string, req UpdatePalierRequest) (*models.Palier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid palier payload")
	}

	palier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "palier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load palier")
	}

	start, end, err := s.checkPeriod(ctx, req.SessionID, req.StartDate, req.EndDate, id)
	if err != nil {
		return nil, err
	}

	palier.Name = req.Name
	palier.SessionID = req.SessionID
	palier.StartDate = start
	palier.EndDate = end
	if req.Status != "" {
		palier.Status = req.Status
	}

	if err := s.repo.Update(ctx, palier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update palier")
	}
	return palier, nil
}

// Delete removes a palier.
func (s *PalierService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "palier not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load palier")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete palier")
	}
	return nil
}

// checkPeriod canonicalizes the candidate dates, loads the parent session and
// siblings, and runs the period validator. Both rule violations are reported
// together in the error details so the caller can surface either or both.
func (s *PalierService) checkPeriod(ctx context.Context, sessionID, startRaw, endRaw, excludeID string) (start, end time.Time, err error) {
	start, end, err = validation.ParseInterval(startRaw, endRaw)
	if err != nil {
		return start, end, err
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return start, end, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return start, end, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	siblings, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return start, end, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling paliers")
	}

	result, err := validation.ValidatePeriod(validation.PeriodCandidate{
		Start:     start,
		End:       end,
		SessionID: sessionID,
		ExcludeID: excludeID,
	}, validation.SessionWindow{Start: session.StartDate, End: session.EndDate}, siblings)
	if err != nil {
		return start, end, err
	}

	s.metrics.RecordValidationResult("outside_session", !result.OutsideSession)
	s.metrics.RecordValidationResult("overlapping_period", !result.Overlap)

	if !result.OK() {
		details := map[string]any{
			"outside_session": result.OutsideSession,
			"overlap":         result.Overlap,
			"reasons":         result.Reasons(),
		}
		base := appErrors.ErrOverlappingPeriod
		if result.OutsideSession {
			base = appErrors.ErrOutsideSession
		}
		return start, end, appErrors.WithDetails(base, details)
	}

	return start, end, nil
}
