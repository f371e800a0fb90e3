package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type mockInscriptionRepo struct {
	inscriptions map[string]models.Inscription
	created      *models.Inscription
	updated      *models.Inscription
	statusSet    map[string]models.InscriptionStatus
}

func (m *mockInscriptionRepo) List(ctx context.Context, filter models.InscriptionFilter) ([]models.InscriptionDetail, int, error) {
	return nil, 0, nil
}

func (m *mockInscriptionRepo) FindByID(ctx context.Context, id string) (*models.Inscription, error) {
	if ins, ok := m.inscriptions[id]; ok {
		return &ins, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInscriptionRepo) FindDetailByID(ctx context.Context, id string) (*models.InscriptionDetail, error) {
	if ins, ok := m.inscriptions[id]; ok {
		return &models.InscriptionDetail{Inscription: ins}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInscriptionRepo) ListByClassSession(ctx context.Context, classSessionID string) ([]models.Inscription, error) {
	var list []models.Inscription
	for _, ins := range m.inscriptions {
		if ins.ClassSessionID == classSessionID {
			list = append(list, ins)
		}
	}
	return list, nil
}

func (m *mockInscriptionRepo) ListByStudentUser(ctx context.Context, studentUserID string) ([]models.Inscription, error) {
	var list []models.Inscription
	for _, ins := range m.inscriptions {
		if ins.StudentUserID == studentUserID {
			list = append(list, ins)
		}
	}
	return list, nil
}

func (m *mockInscriptionRepo) Create(ctx context.Context, ins *models.Inscription) error {
	if m.inscriptions == nil {
		m.inscriptions = make(map[string]models.Inscription)
	}
	if ins.ID == "" {
		ins.ID = "new-inscription"
	}
	m.inscriptions[ins.ID] = *ins
	m.created = ins
	return nil
}

func (m *mockInscriptionRepo) Update(ctx context.Context, ins *models.Inscription) error {
	m.inscriptions[ins.ID] = *ins
	m.updated = ins
	return nil
}

func (m *mockInscriptionRepo) UpdateStatus(ctx context.Context, id string, status models.InscriptionStatus) error {
	if m.statusSet == nil {
		m.statusSet = make(map[string]models.InscriptionStatus)
	}
	m.statusSet[id] = status
	if ins, ok := m.inscriptions[id]; ok {
		ins.Status = status
		m.inscriptions[id] = ins
	}
	return nil
}

func (m *mockInscriptionRepo) Delete(ctx context.Context, id string) error {
	delete(m.inscriptions, id)
	return nil
}

type mockClassSessionReader struct {
	classSessions map[string]models.ClassSession
}

func (m *mockClassSessionReader) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if cs, ok := m.classSessions[id]; ok {
		return &cs, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentByUserReader struct {
	students map[string]models.Student
}

func (m *mockStudentByUserReader) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.students[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func fullClass(confirmed int) *mockInscriptionRepo {
	repo := &mockInscriptionRepo{inscriptions: make(map[string]models.Inscription)}
	for i := 0; i < confirmed; i++ {
		id := fmt.Sprintf("ins-%d", i)
		repo.inscriptions[id] = models.Inscription{
			ID:             id,
			StudentUserID:  fmt.Sprintf("user-%d", i),
			ClassSessionID: "cs-1",
			Status:         models.InscriptionStatusConfirmed,
		}
	}
	return repo
}

func newInscriptionFixture(repo *mockInscriptionRepo, capacite int) *InscriptionService {
	classSessions := &mockClassSessionReader{classSessions: map[string]models.ClassSession{
		"cs-1": {ID: "cs-1", ClassID: "class-1", SessionID: "sess-1", Capacite: capacite},
	}}
	students := &mockStudentByUserReader{students: map[string]models.Student{
		"user-new": {ID: "stu-new", UserID: "user-new", Matricule: "M-100"},
		"user-0":   {ID: "stu-0", UserID: "user-0", Matricule: "M-0"},
	}}
	return NewInscriptionService(repo, classSessions, students, nil, validator.New(), zap.NewNop())
}

func TestInscriptionServiceCreateFirstEnrollment(t *testing.T) {
	repo := &mockInscriptionRepo{}
	svc := newInscriptionFixture(repo, 30)

	ins, err := svc.Create(context.Background(), CreateInscriptionRequest{
		StudentUserID:  "user-new",
		ClassSessionID: "cs-1",
		Status:         models.InscriptionStatusConfirmed,
	})
	require.NoError(t, err)
	assert.False(t, ins.Reinscription)
	require.NotNil(t, repo.created)
}

func TestInscriptionServiceCreateDerivesReinscription(t *testing.T) {
	repo := &mockInscriptionRepo{inscriptions: map[string]models.Inscription{
		"old": {
			ID:             "old",
			StudentUserID:  "user-new",
			ClassSessionID: "cs-archived",
			Status:         models.InscriptionStatusCancelled,
		},
	}}
	svc := newInscriptionFixture(repo, 30)

	// Any prior record counts, even cancelled ones from another session.
	ins, err := svc.Create(context.Background(), CreateInscriptionRequest{
		StudentUserID:  "user-new",
		ClassSessionID: "cs-1",
		Status:         models.InscriptionStatusConfirmed,
	})
	require.NoError(t, err)
	assert.True(t, ins.Reinscription)
}

func TestInscriptionServiceCreateCapacityExceeded(t *testing.T) {
	repo := fullClass(30)
	svc := newInscriptionFixture(repo, 30)

	_, err := svc.Create(context.Background(), CreateInscriptionRequest{
		StudentUserID:  "user-new",
		ClassSessionID: "cs-1",
		Status:         models.InscriptionStatusConfirmed,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Equal(t, 30, appErr.Details["confirmed"])
	assert.Nil(t, repo.created)
}

func TestInscriptionServiceCreatePendingSkipsCapacity(t *testing.T) {
	repo := fullClass(30)
	svc := newInscriptionFixture(repo, 30)

	// Pending enrollments do not claim a seat.
	ins, err := svc.Create(context.Background(), CreateInscriptionRequest{
		StudentUserID:  "user-new",
		ClassSessionID: "cs-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionStatusPending, ins.Status)
}

func TestInscriptionServiceUpdateExcludesSelfFromCount(t *testing.T) {
	repo := fullClass(30)
	svc := newInscriptionFixture(repo, 30)

	// Re-saving an existing confirmed enrollment in a full class succeeds
	// because its own seat is not counted against it.
	ins, err := svc.Update(context.Background(), "ins-0", UpdateInscriptionRequest{
		ClassSessionID: "cs-1",
		Status:         models.InscriptionStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionStatusConfirmed, ins.Status)
}

func TestInscriptionServiceConfirmClaimsSeat(t *testing.T) {
	repo := fullClass(30)
	repo.inscriptions["pending-1"] = models.Inscription{
		ID:             "pending-1",
		StudentUserID:  "user-pending",
		ClassSessionID: "cs-1",
		Status:         models.InscriptionStatusPending,
	}
	svc := newInscriptionFixture(repo, 30)

	_, err := svc.UpdateStatus(context.Background(), "pending-1", models.InscriptionStatusConfirmed)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestInscriptionServiceCancelAlwaysAllowed(t *testing.T) {
	repo := fullClass(30)
	svc := newInscriptionFixture(repo, 30)

	ins, err := svc.UpdateStatus(context.Background(), "ins-0", models.InscriptionStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionStatusCancelled, ins.Status)
}

func TestInscriptionServiceCreateUnknownStudent(t *testing.T) {
	repo := &mockInscriptionRepo{}
	svc := newInscriptionFixture(repo, 30)

	_, err := svc.Create(context.Background(), CreateInscriptionRequest{
		StudentUserID:  "user-unknown",
		ClassSessionID: "cs-1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
