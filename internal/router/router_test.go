package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/database"
	"github.com/hostedid/accounts/internal/email"
	"github.com/hostedid/accounts/internal/handler"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/middleware"
	"github.com/hostedid/accounts/internal/queue"
	"github.com/hostedid/accounts/internal/repository"
	"github.com/hostedid/accounts/internal/service"
	"github.com/hostedid/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	http.Handler
	db    sqlmock.Sqlmock
	redis *miniredis.Miniredis
	queue *queue.RedisQueue
}

func newTestServer(t *testing.T, registerLimit int) *testServer {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db := database.WrapPostgres(sqlDB)
	rdb, mr := testutil.NewRedis(t)

	cfg := &config.Config{
		Security: config.SecurityConfig{RateLimiting: config.RateLimitingConfig{
			Enabled:        true,
			RegisterLimit:  registerLimit,
			RegisterWindow: time.Hour,
		}},
	}
	log := logger.Nop()
	q := queue.NewRedisQueue(rdb, "default")
	welcome := service.NewWelcomeEmailService(email.NewRenderer(""), &testutil.RecordingSender{}, service.WelcomeConfig{FromAddress: "webmaster@example.com"}, log)
	users := service.NewUserService(repository.NewUserRepository(db), welcome, q, log)

	h := handler.New(db, rdb, log, cfg, users)
	return &testServer{
		Handler: New(h, middleware.New(rdb, log, cfg)),
		db:      mock,
		redis:   mr,
		queue:   q,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterUser(t *testing.T) {
	srv := newTestServer(t, 10)
	srv.db.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	srv.db.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "new@example.com", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(http.MethodPost, "/api/v1/users", `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "new@example.com", body["email"])
	assert.Equal(t, "/users/"+id+"/", body["url"])
	assert.Equal(t, "/users/"+id+"/", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	pending, err := srv.queue.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending, "welcome email is queued")
	assert.NoError(t, srv.db.ExpectationsWereMet())
}

func TestRegisterUserErrors(t *testing.T) {
	t.Run("invalid body", func(t *testing.T) {
		srv := newTestServer(t, 10)
		rec := srv.do(http.MethodPost, "/api/v1/users", `{"email":"a@example.com","admin":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decode(t, rec)["error"].(map[string]any)["code"])
	})

	t.Run("invalid email", func(t *testing.T) {
		srv := newTestServer(t, 10)
		rec := srv.do(http.MethodPost, "/api/v1/users", `{"email":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_email", decode(t, rec)["error"].(map[string]any)["code"])
	})

	t.Run("taken", func(t *testing.T) {
		srv := newTestServer(t, 10)
		srv.db.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		rec := srv.do(http.MethodPost, "/api/v1/users", `{"email":"taken@example.com"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		pending, err := srv.queue.Len(context.Background())
		require.NoError(t, err)
		assert.Zero(t, pending)
	})
}

func TestRegisterRateLimited(t *testing.T) {
	srv := newTestServer(t, 1)

	first := srv.do(http.MethodPost, "/api/v1/users", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := srv.do(http.MethodPost, "/api/v1/users", `{"email":"nope"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestGetUser(t *testing.T) {
	srv := newTestServer(t, 10)
	user := testutil.NewUser()
	srv.db.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(user.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "is_active", "date_joined", "updated_at"}).
			AddRow(user.ID, user.Email, user.IsActive, user.DateJoined, user.UpdatedAt))

	rec := srv.do(http.MethodGet, user.AbsoluteURL(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, user.Email, body["email"])
	assert.Equal(t, user.AbsoluteURL(), body["url"])
}

func TestGetUserNotFound(t *testing.T) {
	srv := newTestServer(t, 10)
	srv.db.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	rec := srv.do(http.MethodGet, "/users/missing/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 10)

	rec := srv.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, handler.Version, body["version"])

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/ready", "").Code)

	srv.redis.Close()

	rec = srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["services"].(map[string]any)["redis"])

	assert.Equal(t, http.StatusServiceUnavailable, srv.do(http.MethodGet, "/ready", "").Code)
}
