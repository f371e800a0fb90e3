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

func TestInscriptionRepositoryListByClassSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInscriptionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_user_id", "class_session_id", "status", "reinscription", "created_at", "updated_at"}).
		AddRow("ins-1", "user-1", "cs-1", models.InscriptionStatusConfirmed, false, time.Now(), time.Now()).
		AddRow("ins-2", "user-2", "cs-1", models.InscriptionStatusPending, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_user_id, class_session_id, status, reinscription, created_at, updated_at FROM inscriptions WHERE class_session_id = $1")).
		WithArgs("cs-1").
		WillReturnRows(rows)

	roster, err := repo.ListByClassSession(context.Background(), "cs-1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInscriptionRepositoryListByStudentUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInscriptionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_user_id", "class_session_id", "status", "reinscription", "created_at", "updated_at"}).
		AddRow("ins-1", "user-1", "cs-1", models.InscriptionStatusCancelled, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_user_id, class_session_id, status, reinscription, created_at, updated_at FROM inscriptions WHERE student_user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(rows)

	history, err := repo.ListByStudentUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInscriptionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInscriptionRepository(db)

	mock.ExpectExec("INSERT INTO inscriptions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ins := &models.Inscription{StudentUserID: "user-1", ClassSessionID: "cs-1", Status: models.InscriptionStatusConfirmed}
	err := repo.Create(context.Background(), ins)
	require.NoError(t, err)
	require.NotEmpty(t, ins.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInscriptionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInscriptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE inscriptions SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("ins-1", models.InscriptionStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "ins-1", models.InscriptionStatusCancelled))
	require.NoError(t, mock.ExpectationsWereMet())
}
