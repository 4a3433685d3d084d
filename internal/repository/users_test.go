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

func TestGetUserByUsername(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("pdurand").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "full_name", "email", "role", "is_active", "created_at", "version"}).
			AddRow(3, "hash", "Paul Durand", "pdurand@example.com", "technician", true, time.Now(), 1))

	user, err := repo.GetUserByUsername("pdurand")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "pdurand", user.Username)
	assert.Equal(t, domain.RoleTechnician, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByID(9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	user := &domain.User{
		Username:     "admin",
		PasswordHash: "hash",
		FullName:     "管理员",
		Email:        "admin@example.com",
		Role:         domain.RoleAdmin,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin", "hash", "管理员", "admin@example.com", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "created_at", "version"}).AddRow(1, true, time.Now(), 1))

	require.NoError(t, repo.CreateUser(user))
	assert.Equal(t, int64(1), user.ID)
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	user := &domain.User{ID: 2, PasswordHash: "hash", FullName: "Paul Durand", Email: "p@example.com", Role: domain.RoleSubcontractor, IsActive: true, Version: 1}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WithArgs("hash", "Paul Durand", "p@example.com", "subcontractor", true, int64(2), int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"username", "created_at", "version"}).AddRow("pdurand", time.Now(), 2))

	require.NoError(t, repo.UpdateUser(user))
	assert.Equal(t, "pdurand", user.Username)
	assert.Equal(t, int32(2), user.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllUsers(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	columns := []string{"id", "username", "password_hash", "full_name", "email", "role", "is_active", "created_at", "version"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "admin", "hash", "管理员", "admin@example.com", "admin", true, time.Now(), 1).
			AddRow(2, "pdurand", "hash", "Paul Durand", "p@example.com", "client", true, time.Now(), 1))

	users, err := repo.GetAllUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.RoleClient, users[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteUser(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
