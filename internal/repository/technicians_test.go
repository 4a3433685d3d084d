package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var technicianRowColumns = []string{"id", "full_name", "email", "color", "is_active", "created_at", "version", "specialty"}

func TestGetActiveTechnicians_GroupsSpecialties(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(technicianRowColumns).
		AddRow(2, "Alice Bernard", "abernard@example.com", "#ef4444", true, now, 1, "clim").
		AddRow(2, "Alice Bernard", "abernard@example.com", "#ef4444", true, now, 1, "pac").
		AddRow(1, "Paul Durand", nil, "#3b82f6", true, now, 1, nil)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN planning_technician_specialties")).
		WithArgs(true).
		WillReturnRows(rows)

	technicians, err := repo.GetActiveTechnicians()
	require.NoError(t, err)
	require.Len(t, technicians, 2)

	assert.Equal(t, "Alice Bernard", technicians[0].FullName)
	assert.Equal(t, []string{"clim", "pac"}, technicians[0].Specialties)
	require.NotNil(t, technicians[0].Email)
	assert.Equal(t, "abernard@example.com", *technicians[0].Email)

	assert.Equal(t, "Paul Durand", technicians[1].FullName)
	assert.Empty(t, technicians[1].Specialties)
	assert.NotNil(t, technicians[1].Specialties)
	assert.Nil(t, technicians[1].Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllTechnicians(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM planning_technicians pt")).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(technicianRowColumns).
			AddRow(3, "Luc Petit", nil, "#000000", false, time.Now(), 2, nil))

	technicians, err := repo.GetAllTechnicians()
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.False(t, technicians[0].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTechnicianByID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	columns := technicianRowColumns[1:]
	mock.ExpectQuery(regexp.QuoteMeta("WHERE pt.id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("Paul Durand", nil, "#3b82f6", true, time.Now(), 1, "gaz").
			AddRow("Paul Durand", nil, "#3b82f6", true, time.Now(), 1, "pac"))

	technician, err := repo.GetTechnicianByID(5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), technician.ID)
	assert.Equal(t, []string{"gaz", "pac"}, technician.Specialties)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTechnicianByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE pt.id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(technicianRowColumns[1:]))

	technician, err := repo.GetTechnicianByID(99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, technician)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTechnician(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	technician := &domain.Technician{
		FullName:    "Alice Bernard",
		Color:       "#ef4444",
		IsActive:    true,
		Specialties: []string{"clim", "pac"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO planning_technicians")).
		WithArgs("Alice Bernard", nil, "#ef4444", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).AddRow(4, time.Now(), 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO planning_technician_specialties")).
		WithArgs(int64(4), "clim").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO planning_technician_specialties")).
		WithArgs(int64(4), "pac").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateTechnician(technician))
	assert.Equal(t, int64(4), technician.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTechnician_RollbackOnError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	technician := &domain.Technician{ID: 4, FullName: "Alice Bernard", Color: "#ef4444", Version: 1, Specialties: []string{"clim"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE planning_technicians")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM planning_technician_specialties")).
		WithArgs(int64(4)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.UpdateTechnician(technician)
	assert.EqualError(t, err, "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTechnician_StaleVersion(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	technician := &domain.Technician{ID: 4, FullName: "Alice Bernard", Color: "#ef4444", Version: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE planning_technicians")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	err := repo.UpdateTechnician(technician)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
