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

func studentDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "matricule", "full_name", "gender", "birth_date", "address", "phone", "active",
		"created_at", "updated_at", "current_class_session_id", "current_class_name",
	})
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	cs := "cs-1"
	class := "6e A"
	rows := studentDetailRows().
		AddRow("st-1", "user-1", "MAT-0001", "Awa Diop", "F", time.Now(), "", "", true, time.Now(), time.Now(), &cs, &class)
	mock.ExpectQuery("SELECT s.id, s.user_id, s.matricule").
		WithArgs("st-1", models.InscriptionStatusConfirmed).
		WillReturnRows(rows)

	detail, err := repo.FindByID(context.Background(), "st-1")
	require.NoError(t, err)
	require.Equal(t, "MAT-0001", detail.Matricule)
	require.NotNil(t, detail.CurrentClassSessionID)
	require.Equal(t, "cs-1", *detail.CurrentClassSessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "matricule", "full_name", "gender", "birth_date", "address", "phone", "active", "created_at", "updated_at"}).
		AddRow("st-1", "user-1", "MAT-0001", "Awa Diop", "F", time.Now(), "", "", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, matricule, full_name, gender, birth_date, address, phone, active, created_at, updated_at FROM students WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(rows)

	student, err := repo.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "st-1", student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByMatricule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE matricule = $1 LIMIT 1")).
		WithArgs("MAT-0001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByMatricule(context.Background(), "MAT-0001", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByMatriculeExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE matricule = $1 AND id <> $2 LIMIT 1")).
		WithArgs("MAT-0001", "st-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByMatricule(context.Background(), "MAT-0001", "st-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{UserID: "user-1", Matricule: "MAT-0001", FullName: "Awa Diop", BirthDate: time.Now(), Active: true}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	require.NotEmpty(t, student.ID)
	require.False(t, student.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET active = false, updated_at = $2 WHERE id = $1")).
		WithArgs("st-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Deactivate(context.Background(), "st-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
