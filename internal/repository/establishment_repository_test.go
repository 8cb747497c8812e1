package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkestre/orkestre-api/internal/models"
)

func TestEstablishmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEstablishmentRepository(db)

	configJSON := `{"monday":{"is_active":true,"start_time":"09:00","end_time":"18:00"},"appointment_interval_minutes":30}`
	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "timezone", "working_hours_config", "created_at", "updated_at"}).
		AddRow(int64(1), int64(1), "Studio Bela", "America/Sao_Paulo", []byte(configJSON), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, name, timezone, working_hours_config, created_at, updated_at FROM establishments WHERE id = $1 LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	est, err := repo.FindByID(context.Background(), int64(1))
	require.NoError(t, err)
	require.NotNil(t, est.WorkingHoursConfig)
	assert.True(t, est.WorkingHoursConfig.Monday.IsActive)
	assert.Equal(t, 30, est.WorkingHoursConfig.AppointmentIntervalMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstablishmentRepositoryUpdateWorkingHours(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEstablishmentRepository(db)

	mock.ExpectExec(`UPDATE establishments SET working_hours_config = \$2`).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := &models.WorkingHoursConfig{AppointmentIntervalMinutes: 30}
	require.NoError(t, repo.UpdateWorkingHours(context.Background(), int64(1), cfg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstablishmentRepositoryUpdateWorkingHoursMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEstablishmentRepository(db)

	mock.ExpectExec(`UPDATE establishments SET working_hours_config = \$2`).
		WithArgs(int64(99), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateWorkingHours(context.Background(), int64(99), &models.WorkingHoursConfig{})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
