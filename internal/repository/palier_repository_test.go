package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPalierRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPalierRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "session_id", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow("pal-1", "Trimestre 1", "sess-1", time.Now(), time.Now(), models.PalierStatusPlanned, time.Now(), time.Now()).
		AddRow("pal-2", "Trimestre 2", "sess-1", time.Now(), time.Now(), models.PalierStatusPlanned, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, session_id, start_date, end_date, status, created_at, updated_at FROM paliers WHERE session_id = $1 ORDER BY start_date ASC")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	paliers, err := repo.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, paliers, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPalierRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPalierRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "session_id", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow("pal-1", "Trimestre 1", "sess-1", time.Now(), time.Now(), models.PalierStatusActive, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, session_id, start_date, end_date, status, created_at, updated_at FROM paliers WHERE id = $1")).
		WithArgs("pal-1").
		WillReturnRows(rows)

	palier, err := repo.FindByID(context.Background(), "pal-1")
	require.NoError(t, err)
	require.Equal(t, "Trimestre 1", palier.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPalierRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPalierRepository(db)

	mock.ExpectExec("INSERT INTO paliers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	palier := &models.Palier{Name: "Trimestre 1", SessionID: "sess-1", StartDate: time.Now(), EndDate: time.Now(), Status: models.PalierStatusPlanned}
	err := repo.Create(context.Background(), palier)
	require.NoError(t, err)
	require.NotEmpty(t, palier.ID)
	require.False(t, palier.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPalierRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPalierRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM paliers WHERE id = $1")).
		WithArgs("pal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "pal-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
