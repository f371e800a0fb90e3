package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func TestClassSessionRepositoryExistsByClassAndSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_sessions WHERE class_id = $1 AND session_id = $2 LIMIT 1")).
		WithArgs("class-1", "sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByClassAndSession(context.Background(), "class-1", "sess-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCountConfirmed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inscriptions WHERE class_session_id = $1 AND status = 'CONFIRMED'")).
		WithArgs("cs-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(28))

	count, err := repo.CountConfirmed(context.Background(), "cs-1")
	require.NoError(t, err)
	require.Equal(t, 28, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryUpdateCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET capacite = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("cs-1", 35, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCapacity(context.Background(), "cs-1", 35))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec("INSERT INTO class_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	cs := &models.ClassSession{ClassID: "class-1", SessionID: "sess-1", Capacite: 30}
	err := repo.Create(context.Background(), cs)
	require.NoError(t, err)
	require.NotEmpty(t, cs.ID)
	require.False(t, cs.UpdatedAt.Before(time.Now().Add(-time.Minute)))
	require.NoError(t, mock.ExpectationsWereMet())
}
