package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldops-hvac/planning/backend/internal/config"
	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/fieldops-hvac/planning/backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type fakeMailer struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	err      error
}

func (m *fakeMailer) Publish(ctx context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	busy     bool
	locked   map[string]string
	unlocked []string
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy || l.locked[key] != "" {
		return "", false, nil
	}
	l.locked[key] = "token-" + key
	return l.locked[key], true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked[key] == token {
		delete(l.locked, key)
		l.unlocked = append(l.unlocked, key)
	}
	return nil
}

type testEnv struct {
	h      *Handler
	mock   sqlmock.Sqlmock
	mailer *fakeMailer
	locker *fakeLocker
}

func newTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.JWT.Secret = testJWTSecret
	cfg.JWT.Expiration = 1
	cfg.InitialAdmin.Username = "admin"
	cfg.Planning.Timezone = "UTC"
	cfg.Planning.FirstHour = 7
	cfg.Planning.LastHour = 19
	cfg.Planning.BaselineHours = 8
	cfg.Planning.RelocationLockTTL = 10

	mailer := &fakeMailer{}
	locker := &fakeLocker{locked: map[string]string{}}

	h, err := NewHandler(cfg, repository.NewRepository(cfg, db), mailer, nil, locker)
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testEnv{h: h, mock: mock, mailer: mailer, locker: locker}
}

func authCookie(t *testing.T, role domain.Role, userID int64) *http.Cookie {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})
	ss, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return &http.Cookie{Name: authCookieName, Value: ss}
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, testResponse) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

var missionRowColumns = []string{
	"id", "client_name", "description", "address", "city", "type",
	"scheduled_start", "scheduled_window_start", "scheduled_window_end",
	"status", "planning_technician_id", "created_at", "version",
}

func utcTime(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}
