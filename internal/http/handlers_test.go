package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/job-tracker/internal/app"
	"github.com/example/job-tracker/internal/config"
	"github.com/example/job-tracker/internal/logging"
	"github.com/example/job-tracker/internal/testfixtures"
)

type testServer struct {
	handler http.Handler
	cookies *CookieSessions
	clock   *testfixtures.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := testfixtures.NewClock(time.Time{})
	cfg := config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "tracker.db"), Driver: "sqlite"},
		Session:  config.SessionConfig{TTL: time.Hour},
	}
	a, err := app.New(context.Background(), cfg, app.Options{
		Logger:         logging.Discard(),
		Now:            clock.NowFunc(),
		Hasher:         testfixtures.FastHashPassword,
		TokenGenerator: testfixtures.NewTokenGenerator("").NextFunc(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	logger := logging.Discard()
	cookies := NewCookieSessions(CookieConfig{Secret: []byte("0123456789abcdef0123456789abcdef"), MaxAge: time.Hour})
	metrics := NewMetrics()
	handler := NewRouter(RouterConfig{
		Auth:     NewAuthHandler(a.Auth, cookies, metrics, logger),
		Seasons:  NewSeasonHandler(a.Tracker, clock.NowFunc(), logger),
		Jobs:     NewJobHandler(a.Tracker, clock.NowFunc(), logger),
		Sessions: a.Auth,
		Cookies:  cookies,
		Metrics:  metrics,
		Logger:   logger,
		Version:  "test",
	})
	return &testServer{handler: handler, cookies: cookies, clock: clock}
}

type request struct {
	method  string
	path    string
	body    any
	raw     string
	token   string
	cookies []*http.Cookie
}

func (s *testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	switch {
	case req.raw != "":
		body = bytes.NewReader([]byte(req.raw))
	case req.body != nil:
		data, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	default:
		body = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	r.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// signup registers username and returns a fresh session token.
func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()

	rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "secret1",
		"full_name": "Test " + username,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"login":    username,
		"password": "secret1",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[loginResponse](t, rec).Token
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via body, header and cookie", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"username": "alice", "email": "alice@example.com", "password": "secret1", "full_name": "Alice A",
		}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[userDTO](t, rec)
		assert.Equal(t, "alice", created.Username)
		assert.Nil(t, created.LastLogin)

		rec = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
			"login": "alice@example.com", "password": "secret1",
		}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		login := decode[loginResponse](t, rec)
		assert.NotEmpty(t, login.Token)
		assert.Equal(t, login.Token, rec.Header().Get(sessionTokenHeader))
		assert.Equal(t, "alice", login.User.Username)
		assert.Equal(t, s.clock.Now().Add(time.Hour).UTC().Format(time.RFC3339), login.ExpiresAt)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		rec = s.do(t, request{method: http.MethodGet, path: "/api/auth/me", cookies: cookies})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, created.ID, decode[userDTO](t, rec).ID)

		rec = s.do(t, request{method: http.MethodGet, path: "/api/auth/me", token: login.Token})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.signup(t, "bob")

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"username": "BOB", "email": "other@example.com", "password": "secret1", "full_name": "Bob B",
		}})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("invalid registration lists field errors", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"username": "al", "email": "not-an-email", "password": "123", "full_name": "Al",
		}})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", resp.ErrorCode)
		assert.Contains(t, resp.Errors, "username")
		assert.Contains(t, resp.Errors, "email")
		assert.Contains(t, resp.Errors, "password")
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.signup(t, "carol")

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
			"login": "carol", "password": "nope-nope",
		}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decode[errorResponse](t, rec).ErrorCode)
		assert.Empty(t, rec.Header().Get(sessionTokenHeader))
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/login", raw: `{"login":`})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		token := s.signup(t, "dave")

		rec := s.do(t, request{method: http.MethodPost, path: "/api/auth/logout", token: token})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, request{method: http.MethodGet, path: "/api/auth/me", token: token})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_REQUIRED", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("expired sessions are rejected", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		token := s.signup(t, "erin")

		s.clock.Advance(2 * time.Hour)
		rec := s.do(t, request{method: http.MethodGet, path: "/api/auth/me", token: token})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("password change requires the current password", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		token := s.signup(t, "frank")

		rec := s.do(t, request{method: http.MethodPut, path: "/api/auth/password", token: token, body: map[string]string{
			"current_password": "wrong-one", "new_password": "secret2",
		}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = s.do(t, request{method: http.MethodPut, path: "/api/auth/password", token: token, body: map[string]string{
			"current_password": "secret1", "new_password": "secret2",
		}})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
			"login": "frank", "password": "secret2",
		}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSeasonHandlers(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	token := s.signup(t, "gina")

	rec := s.do(t, request{method: http.MethodGet, path: "/api/seasons/active", token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons", token: token, body: map[string]string{"name": "Summer 2024"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summer := decode[seasonDTO](t, rec)
	assert.True(t, summer.IsActive)

	s.clock.AdvanceDays(10)
	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons", token: token, body: map[string]string{"name": "Fall 2024"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fall := decode[seasonDTO](t, rec)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons", token: token, body: map[string]string{"name": "Fall 2024"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons", token: token, body: map[string]string{"name": "<b>"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/seasons", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	seasons := decode[[]seasonDTO](t, rec)
	require.Len(t, seasons, 2)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/seasons/active", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fall.ID, decode[seasonDTO](t, rec).ID)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/seasons/" + itoa(summer.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	ended := decode[seasonDTO](t, rec)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndDate)
	assert.Equal(t, 10, ended.DurationDays)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons/end", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[seasonDTO](t, rec).IsActive)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/seasons/abc", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := s.signup(t, "hank")
	rec = s.do(t, request{method: http.MethodDelete, path: "/api/seasons/" + itoa(summer.ID), token: other})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodDelete, path: "/api/seasons/" + itoa(summer.ID), token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/api/seasons/" + itoa(summer.ID), token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandlers(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	token := s.signup(t, "ivy")

	rec := s.do(t, request{method: http.MethodPost, path: "/api/jobs", token: token, body: map[string]string{"role": "SRE", "company_name": "Acme"}})
	assert.Equal(t, http.StatusNotFound, rec.Code, "jobs need an active season")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/seasons", token: token, body: map[string]string{"name": "Spring"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	season := decode[seasonDTO](t, rec)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/jobs", token: token, body: map[string]string{
		"role":            "Backend Engineer",
		"company_name":    "Acme",
		"company_website": "https://acme.example",
		"source":          "LinkedIn",
		"applied_date":    "2024-01-01",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[jobDTO](t, rec)
	assert.Equal(t, season.ID, first.SeasonID)
	assert.Equal(t, "Spring", first.SeasonName)
	assert.Equal(t, "Applied", first.Status)
	assert.Equal(t, 1, first.DaysSinceApplied)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/jobs", token: token, body: map[string]string{"company_name": "Acme"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "role")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/jobs", token: token, body: map[string]string{"role": "SRE", "company_name": "Globex"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, request{method: http.MethodPost, path: "/api/jobs", token: token, body: map[string]string{"role": "Platform", "company_name": "Initech", "status": "offer"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]jobDTO](t, rec), 3)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs/search?q=linkedin", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]jobDTO](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs/filter?status=OFFER", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]jobDTO](t, rec), 1)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs/filter?status=ghosted", token: token})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs?season_id=zero", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/statistics?season_id=" + itoa(season.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statisticsDTO](t, rec)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, map[string]int{"Applied": 2, "Offer": 1}, stats.StatusBreakdown)

	rec = s.do(t, request{method: http.MethodPut, path: "/api/jobs/" + itoa(first.ID) + "/status", token: token, body: map[string]string{"status": "phone_screen"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Phone Screen", decode[jobDTO](t, rec).Status)

	rec = s.do(t, request{method: http.MethodPut, path: "/api/jobs/" + itoa(first.ID), token: token, body: map[string]string{
		"role": "Staff Engineer", "company_name": "Acme", "description": "remote",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[jobDTO](t, rec)
	assert.Equal(t, "Staff Engineer", updated.Role)
	assert.Equal(t, "Phone Screen", updated.Status)
	assert.Equal(t, first.AppliedDate, updated.AppliedDate)

	intruder := s.signup(t, "jack")
	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs/" + itoa(first.ID), token: intruder})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs?season_id=" + itoa(season.ID), token: intruder})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]jobDTO](t, rec))

	rec = s.do(t, request{method: http.MethodDelete, path: "/api/jobs/" + itoa(first.ID), token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs/" + itoa(first.ID), token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/job-statuses", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]string](t, rec)
	assert.Len(t, statuses, 9)
	assert.Equal(t, "Applied", statuses[0])
}

func TestRouterInfrastructure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, request{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok", "version": "test"}, decode[map[string]string](t, rec))

	rec = s.do(t, request{method: http.MethodGet, path: "/api/jobs"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/nowhere"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).ErrorCode)

	rec = s.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `jobtracker_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
