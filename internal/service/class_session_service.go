package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

// seatGridColumns controls how seat numbers wrap into rows when rendering a
// seating plan for a class session.
const seatGridColumns = 5

type classSessionRepository interface {
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ExistsByClassAndSession(ctx context.Context, classID, sessionID string) (bool, error)
	Create(ctx context.Context, cs *models.ClassSession) error
	UpdateCapacity(ctx context.Context, id string, capacite int) error
	CountConfirmed(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CreateClassSessionRequest opens a class for a session with a seat capacity.
type CreateClassSessionRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Capacite  int    `json:"capacite" validate:"gte=0"`
}

// UpdateCapacityRequest changes the seat capacity of a class session.
type UpdateCapacityRequest struct {
	Capacite int `json:"capacite" validate:"gte=0"`
}

// ClassSessionOccupancy reports seat usage for a class session.
type ClassSessionOccupancy struct {
	ClassSessionID string `json:"class_session_id"`
	Capacite       int    `json:"capacite"`
	Confirmed      int    `json:"confirmed"`
	Remaining      int    `json:"remaining"`
}

// ClassSessionService manages class openings per session and their capacity.
type ClassSessionService struct {
	repo      classSessionRepository
	classes   classReader
	sessions  sessionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassSessionService creates a new class session service instance.
func NewClassSessionService(repo classSessionRepository, classes classReader, sessions sessionReader, validate *validator.Validate, logger *zap.Logger) *ClassSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassSessionService{
		repo:      repo,
		classes:   classes,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// List returns paginated class sessions with confirmed enrollment counts.
func (s *ClassSessionService) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class session by ID.
func (s *ClassSessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	cs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}
	return cs, nil
}

// Create opens a class for a session. A class may be opened at most once per
// session.
func (s *ClassSessionService) Create(ctx context.Context, req CreateClassSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class session payload")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.sessions.FindByID(ctx, req.SessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	exists, err := s.repo.ExistsByClassAndSession(ctx, req.ClassID, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class session uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class is already open for this session")
	}

	cs := &models.ClassSession{
		ClassID:   req.ClassID,
		SessionID: req.SessionID,
		Capacite:  req.Capacite,
	}
	if err := s.repo.Create(ctx, cs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class session")
	}
	return cs, nil
}

// UpdateCapacity changes the seat capacity. Shrinking below the current
// confirmed count is rejected so existing enrollments never become invalid.
func (s *ClassSessionService) UpdateCapacity(ctx context.Context, id string, req UpdateCapacityRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity payload")
	}

	cs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}

	confirmed, err := s.repo.CountConfirmed(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed inscriptions")
	}
	if req.Capacite < confirmed {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "capacity below current confirmed enrollments"), map[string]any{
			"confirmed": confirmed,
			"capacite":  req.Capacite,
		})
	}

	if err := s.repo.UpdateCapacity(ctx, id, req.Capacite); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update capacity")
	}
	cs.Capacite = req.Capacite
	return cs, nil
}

// Occupancy reports seat usage for a class session.
func (s *ClassSessionService) Occupancy(ctx context.Context, id string) (*ClassSessionOccupancy, error) {
	cs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}

	confirmed, err := s.repo.CountConfirmed(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed inscriptions")
	}

	remaining := cs.Capacite - confirmed
	if remaining < 0 {
		remaining = 0
	}
	return &ClassSessionOccupancy{
		ClassSessionID: id,
		Capacite:       cs.Capacite,
		Confirmed:      confirmed,
		Remaining:      remaining,
	}, nil
}

// SeatGrid enumerates seat positions for a class session, numbering seats
// left to right then top to bottom.
func (s *ClassSessionService) SeatGrid(ctx context.Context, id string) ([]models.SeatPosition, error) {
	cs, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}

	seats := make([]models.SeatPosition, 0, cs.Capacite)
	for i := 0; i < cs.Capacite; i++ {
		seats = append(seats, models.SeatPosition{
			Row:    i/seatGridColumns + 1,
			Col:    i%seatGridColumns + 1,
			Number: i + 1,
		})
	}
	return seats, nil
}

// Delete removes a class session opening. Openings with enrollments attached
// cannot be removed.
func (s *ClassSessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}

	confirmed, err := s.repo.CountConfirmed(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed inscriptions")
	}
	if confirmed > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class session still has %d confirmed inscriptions", confirmed))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class session")
	}
	return nil
}
