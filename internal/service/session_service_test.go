package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions    map[string]models.Session
	palierCount map[string]int
	inProgress  string
	deleted     []string
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var list []models.Session
	for _, s := range m.sessions {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindInProgress(ctx context.Context) (*models.Session, error) {
	if s, ok := m.sessions[m.inProgress]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.sessions == nil {
		m.sessions = make(map[string]models.Session)
	}
	if session.ID == "" {
		session.ID = "new-session"
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.Session) error {
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionRepo) SetInProgress(ctx context.Context, id string) error {
	for key, s := range m.sessions {
		s.InProgress = key == id
		m.sessions[key] = s
	}
	m.inProgress = id
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSessionRepo) CountPaliers(ctx context.Context, id string) (int, error) {
	return m.palierCount[id], nil
}

func TestSessionServiceCreate(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := NewSessionService(repo, nil, validator.New(), zap.NewNop())

	session, err := svc.Create(context.Background(), CreateSessionRequest{
		Name:      "2024-2025",
		StartDate: "2024-09-01",
		EndDate:   "30/06/2025",
	})
	require.NoError(t, err)
	assert.Equal(t, mustDate(t, "2024-09-01"), session.StartDate)
	assert.Equal(t, mustDate(t, "2025-06-30"), session.EndDate)
}

func TestSessionServiceCreateInvertedRange(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSessionRequest{
		Name:      "2024-2025",
		StartDate: "2025-06-30",
		EndDate:   "2024-09-01",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidInput.Code, appErr.Code)
}

func TestSessionServiceSetInProgressSingle(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"s1": {ID: "s1", InProgress: true},
		"s2": {ID: "s2"},
	}, inProgress: "s1"}
	svc := NewSessionService(repo, nil, validator.New(), zap.NewNop())

	session, err := svc.SetInProgress(context.Background(), "s2")
	require.NoError(t, err)
	assert.True(t, session.InProgress)
	assert.False(t, repo.sessions["s1"].InProgress)
	assert.True(t, repo.sessions["s2"].InProgress)
}

func TestSessionServiceDeleteWithPaliers(t *testing.T) {
	repo := &mockSessionRepo{
		sessions:    map[string]models.Session{"s1": {ID: "s1"}},
		palierCount: map[string]int{"s1": 3},
	}
	svc := NewSessionService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "s1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestSessionServiceDelete(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{"s1": {ID: "s1"}}}
	svc := NewSessionService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Contains(t, repo.deleted, "s1")
}

func TestSessionServiceGetInProgressMissing(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, nil, validator.New(), zap.NewNop())

	_, _, err := svc.GetInProgress(context.Background())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
