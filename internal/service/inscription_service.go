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

type inscriptionRepository interface {
	List(ctx context.Context, filter models.InscriptionFilter) ([]models.InscriptionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Inscription, error)
	FindDetailByID(ctx context.Context, id string) (*models.InscriptionDetail, error)
	ListByClassSession(ctx context.Context, classSessionID string) ([]models.Inscription, error)
	ListByStudentUser(ctx context.Context, studentUserID string) ([]models.Inscription, error)
	Create(ctx context.Context, ins *models.Inscription) error
	Update(ctx context.Context, ins *models.Inscription) error
	UpdateStatus(ctx context.Context, id string, status models.InscriptionStatus) error
	Delete(ctx context.Context, id string) error
}

type classSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

type studentReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// CreateInscriptionRequest enrolls a student user into a class session.
// The reinscription flag is never accepted from the caller; it is derived
// from the student's enrollment history at write time.
type CreateInscriptionRequest struct {
	StudentUserID  string                   `json:"student_user_id" validate:"required"`
	ClassSessionID string                   `json:"class_session_id" validate:"required"`
	Status         models.InscriptionStatus `json:"status"`
}

// UpdateInscriptionRequest moves an enrollment to a different class session
// or changes its status.
type UpdateInscriptionRequest struct {
	ClassSessionID string                   `json:"class_session_id" validate:"required"`
	Status         models.InscriptionStatus `json:"status" validate:"required"`
}

// InscriptionService manages enrollments, enforcing the capacity rule and
// deriving the reinscription flag.
type InscriptionService struct {
	repo          inscriptionRepository
	classSessions classSessionReader
	students      studentReader
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewInscriptionService creates a new inscription service instance. metrics
// may be nil.
func NewInscriptionService(repo inscriptionRepository, classSessions classSessionReader, students studentReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *InscriptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InscriptionService{
		repo:          repo,
		classSessions: classSessions,
		students:      students,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// List returns paginated enrollments.
func (s *InscriptionService) List(ctx context.Context, filter models.InscriptionFilter) ([]models.InscriptionDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inscriptions")
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

// Get returns an enrollment with joined student and class details.
func (s *InscriptionService) Get(ctx context.Context, id string) (*models.InscriptionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inscription")
	}
	return detail, nil
}

// Create enrolls a student. The capacity check runs against a freshly loaded
// roster immediately before the write, and the reinscription flag is set when
// the student has any prior enrollment record, whatever its status or session.
func (s *InscriptionService) Create(ctx context.Context, req CreateInscriptionRequest) (*models.Inscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inscription payload")
	}

	if _, err := s.students.FindByUserID(ctx, req.StudentUserID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	status := req.Status
	if status == "" {
		status = models.InscriptionStatusPending
	}

	if err := s.checkCapacity(ctx, req.ClassSessionID, "", status); err != nil {
		return nil, err
	}

	reinscription, err := s.isReinscription(ctx, req.StudentUserID, "")
	if err != nil {
		return nil, err
	}

	ins := &models.Inscription{
		StudentUserID:  req.StudentUserID,
		ClassSessionID: req.ClassSessionID,
		Status:         status,
		Reinscription:  reinscription,
	}

	if err := s.repo.Create(ctx, ins); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inscription")
	}

	s.logger.Info("inscription created",
		zap.String("inscription_id", ins.ID),
		zap.String("student_user_id", ins.StudentUserID),
		zap.String("class_session_id", ins.ClassSessionID),
		zap.Bool("reinscription", ins.Reinscription))
	return ins, nil
}

// Update moves or re-statuses an enrollment. The record under edit is excluded
// from the seat count so a no-op save in a full class still succeeds.
func (s *InscriptionService) Update(ctx context.Context, id string, req UpdateInscriptionRequest) (*models.Inscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inscription payload")
	}

	ins, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inscription")
	}

	if err := s.checkCapacity(ctx, req.ClassSessionID, id, req.Status); err != nil {
		return nil, err
	}

	reinscription, err := s.isReinscription(ctx, ins.StudentUserID, id)
	if err != nil {
		return nil, err
	}

	ins.ClassSessionID = req.ClassSessionID
	ins.Status = req.Status
	ins.Reinscription = reinscription

	if err := s.repo.Update(ctx, ins); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inscription")
	}
	return ins, nil
}

// UpdateStatus changes only the status of an enrollment. Confirming a pending
// enrollment claims a seat, so the capacity rule applies here too.
func (s *InscriptionService) UpdateStatus(ctx context.Context, id string, status models.InscriptionStatus) (*models.Inscription, error) {
	ins, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inscription")
	}

	if err := s.checkCapacity(ctx, ins.ClassSessionID, id, status); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inscription status")
	}
	ins.Status = status
	return ins, nil
}

// Delete removes an enrollment record.
func (s *InscriptionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "inscription not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inscription")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete inscription")
	}
	return nil
}

// checkCapacity loads the class session and its roster, then rejects the write
// when confirming it would leave no seat. Only writes that put the record in
// CONFIRMED state contend for a seat.
func (s *InscriptionService) checkCapacity(ctx context.Context, classSessionID, excludeID string, status models.InscriptionStatus) error {
	classSession, err := s.classSessions.FindByID(ctx, classSessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}
	if status != models.InscriptionStatusConfirmed {
		return nil
	}

	roster, err := s.repo.ListByClassSession(ctx, classSessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	result, err := validation.CheckCapacity(classSessionID, classSession.Capacite, roster, excludeID)
	if err != nil {
		return err
	}
	s.metrics.RecordValidationResult("capacity", !result.Exceeded)
	if result.Exceeded {
		return appErrors.WithDetails(appErrors.ErrCapacityExceeded, map[string]any{
			"class_session_id": classSessionID,
			"confirmed":        result.Current,
			"capacite":         result.Capacity,
		})
	}
	return nil
}

func (s *InscriptionService) isReinscription(ctx context.Context, studentUserID, excludeID string) (bool, error) {
	history, err := s.repo.ListByStudentUser(ctx, studentUserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}
	reinscription, err := validation.IsReinscription(studentUserID, history, excludeID)
	if err != nil {
		return false, err
	}
	return reinscription, nil
}
