package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var missionRowColumns = []string{
	"id", "client_name", "description", "address", "city", "type",
	"scheduled_start", "scheduled_window_start", "scheduled_window_end",
	"status", "planning_technician_id", "created_at", "version",
}

func TestGetMissionsInRange(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	from := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	start := from.Add(9 * time.Hour)
	end := from.Add(11 * time.Hour)

	rows := sqlmock.NewRows(missionRowColumns).
		AddRow(1, "Dupont", "Pose PAC", "3 rue Garibaldi", "Lyon", "INST", start, start, end, "planned", int64(2), from, 1).
		AddRow(2, "Martin", "", "", "Bron", "ENTR", start, nil, nil, "planned", nil, from, 3)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE scheduled_start >= $1 AND scheduled_start < $2")).
		WithArgs(from, to).
		WillReturnRows(rows)

	missions, err := repo.GetMissionsInRange(from, to)
	require.NoError(t, err)
	require.Len(t, missions, 2)

	assert.Equal(t, int64(1), missions[0].ID)
	assert.Equal(t, domain.MissionTypeInstallation, missions[0].Type)
	require.NotNil(t, missions[0].ScheduledWindowStart)
	assert.True(t, missions[0].ScheduledWindowEnd.Equal(end))
	require.NotNil(t, missions[0].PlanningTechnicianID)
	assert.Equal(t, int64(2), *missions[0].PlanningTechnicianID)

	assert.Nil(t, missions[1].ScheduledWindowStart)
	assert.Nil(t, missions[1].ScheduledWindowEnd)
	assert.Nil(t, missions[1].PlanningTechnicianID)
	assert.Equal(t, int32(3), missions[1].Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissionsInRange_Empty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM missions")).
		WillReturnRows(sqlmock.NewRows(missionRowColumns))

	missions, err := repo.GetMissionsInRange(time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, missions)
	assert.Empty(t, missions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissionByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM missions WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	m, err := repo.GetMissionByID(42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMission(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	m := &domain.Mission{
		ClientName:           "Dupont",
		Type:                 domain.MissionTypeMaintenance,
		ScheduledStart:       start,
		ScheduledWindowStart: &start,
		ScheduledWindowEnd:   &end,
		Status:               domain.MissionStatusPlanned,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO missions")).
		WithArgs("Dupont", "", "", "", "ENTR", start, start, end, "planned", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).AddRow(10, start, 1))

	require.NoError(t, repo.CreateMission(m))
	assert.Equal(t, int64(10), m.ID)
	assert.Equal(t, int32(1), m.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissionSchedule(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	start := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	techID := int64(7)
	m := &domain.Mission{
		ID:                   3,
		ScheduledStart:       start,
		ScheduledWindowStart: &start,
		ScheduledWindowEnd:   &end,
		PlanningTechnicianID: &techID,
		Version:              4,
	}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE missions")).
		WithArgs(start, start, end, techID, int64(3), int32(4)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))

	require.NoError(t, repo.UpdateMissionSchedule(m))
	assert.Equal(t, int32(5), m.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissionSchedule_StaleVersion(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	start := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	m := &domain.Mission{ID: 3, ScheduledStart: start, ScheduledWindowStart: &start, ScheduledWindowEnd: &end, Version: 1}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $5 AND version = $6")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	err := repo.UpdateMissionSchedule(m)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissionStatus(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	m := &domain.Mission{ID: 8, Status: domain.MissionStatusDone, Version: 2}

	mock.ExpectQuery(regexp.QuoteMeta("status = $1,")).
		WithArgs("done", int64(8), int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))

	require.NoError(t, repo.UpdateMissionStatus(m))
	assert.Equal(t, int32(3), m.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
