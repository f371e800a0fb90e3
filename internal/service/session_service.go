package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/validation"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindInProgress(ctx context.Context) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	SetInProgress(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountPaliers(ctx context.Context, id string) (int, error)
}

// CreateSessionRequest describes payload for creating academic sessions.
type CreateSessionRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// UpdateSessionRequest updates an academic session.
type UpdateSessionRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// SessionService manages academic sessions (school years).
type SessionService struct {
	repo      sessionRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService creates a new session service instance. The cache may be
// nil when caching is disabled.
func NewSessionService(repo sessionRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, cache: cache, validator: validate, logger: logger}
}

const sessionInProgressCacheKey = "sessions:in_progress"

func (s *SessionService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "sessions:*"); err != nil {
		s.logger.Warn("session cache invalidation failed", zap.Error(err))
	}
}

// List returns paginated sessions.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// GetInProgress returns the session currently marked in progress along with
// a flag indicating whether the value came from cache.
func (s *SessionService) GetInProgress(ctx context.Context) (*models.Session, bool, error) {
	if s.cache != nil && s.cache.Enabled() {
		var cached models.Session
		if hit, err := s.cache.Get(ctx, sessionInProgressCacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	session, err := s.repo.FindInProgress(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no session in progress")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session in progress")
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, sessionInProgressCacheKey, session, 0); err != nil {
			s.logger.Warn("session cache write failed", zap.Error(err))
		}
	}
	return session, false, nil
}

// Create adds a new session. Dates are canonicalized and the range must be
// well ordered.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	start, end, err := validation.ParseInterval(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "session start date is after end date")
	}

	session := &models.Session{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.invalidateCache(ctx)
	return session, nil
}

// Update modifies a session.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	start, end, err := validation.ParseInterval(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "session start date is after end date")
	}

	session.Name = req.Name
	session.StartDate = start
	session.EndDate = end

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.invalidateCache(ctx)
	return session, nil
}

// SetInProgress marks a session as the one in progress. At most one session
// holds the flag; the repository clears all others in the same transaction.
func (s *SessionService) SetInProgress(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if err := s.repo.SetInProgress(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark session in progress")
	}
	session.InProgress = true
	s.invalidateCache(ctx)
	s.logger.Info("session marked in progress", zap.String("session_id", id))
	return session, nil
}

// Delete removes a session. Sessions that still own paliers cannot be
// removed.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	count, err := s.repo.CountPaliers(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count paliers")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "session still has paliers attached")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.invalidateCache(ctx)
	return nil
}
