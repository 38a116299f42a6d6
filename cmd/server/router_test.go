package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/deadline"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			AuthRateLimitPerMinute: 0,
			ShutdownTimeoutSeconds: 1,
		},
		Database: config.DatabaseConfig{URL: "postgres://unused"},
		Auth: config.AuthConfig{
			JWTSecret:                    "router-test-secret-of-at-least-32-chars",
			AccessTokenLifetimeMinutes:   30,
			RefreshTokenLifetimeMinutes:  60,
			PasswordResetLifetimeMinutes: 15,
			BcryptCost:                   bcrypt.MinCost,
		},
		Cache: config.CacheConfig{DefaultTTLSeconds: 60},
		Notifications: config.NotificationsConfig{
			SweepSchedule: "@every 1h",
			SweepWorkers:  1,
		},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	db := mocks.NewMemoryDB()
	stores := appStores{
		users:         mocks.NewUserStore(db),
		categories:    mocks.NewCategoryStore(db),
		todos:         mocks.NewTodoStore(db),
		notifications: mocks.NewNotificationStore(db),
		tx:            mocks.NewTxRunner(),
	}
	app, err := buildApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), stores, nil)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, APIPrefix+path, reader)
	req.RemoteAddr = "192.0.2.10:5555"
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// login registers and logs in a user and returns an authenticated client.
func login(t *testing.T, handler http.Handler, email, password string) *client {
	t.Helper()
	c := &client{t: t, handler: handler}

	rec := c.do(http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tokens := decodeBody[api.TokenResponse](t, rec)
	require.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "bearer", tokens.TokenType)

	c.token = tokens.AccessToken
	return c
}

func (c *client) createTodo(body map[string]any) domain.Todo {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/todos", body)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.Todo](c.t, rec)
}

func TestRouter_RegisterLoginCategoryTodo(t *testing.T) {
	handler := newTestApplication(t, testConfig()).setupRouter()
	c := login(t, handler, "demo@example.com", "demo123")

	rec := c.do(http.MethodPost, "/categories", map[string]string{"name": "Work", "color": "#FF5733"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decodeBody[domain.Category](t, rec)

	todo := c.createTodo(map[string]any{
		"title":       "Learn X",
		"category_id": category.ID,
		"deadline":    time.Now().Add(7 * 24 * time.Hour),
	})
	require.NotNil(t, todo.CategoryID)
	assert.Equal(t, category.ID, *todo.CategoryID)

	rec = c.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo@example.com", decodeBody[domain.User](t, rec).Email)
}

func TestRouter_DeadlineEvaluation(t *testing.T) {
	handler := newTestApplication(t, testConfig()).setupRouter()

	t.Run("overdue pending todo", func(t *testing.T) {
		c := login(t, handler, "overdue@example.com", "secret1")
		todo := c.createTodo(map[string]any{"title": "Late", "deadline": time.Now().Add(-time.Hour)})

		rec := c.do(http.MethodGet, "/notifications/deadlines", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		events := decodeBody[[]deadline.Event](t, rec)
		require.Len(t, events, 1)
		assert.Equal(t, todo.ID, events[0].TodoID)
		assert.Equal(t, domain.NotificationDeadlineOverdue, events[0].Type)
		assert.Equal(t, domain.PriorityHigh, events[0].Priority)
	})

	t.Run("approaching todos", func(t *testing.T) {
		c := login(t, handler, "approaching@example.com", "secret1")
		c.createTodo(map[string]any{"title": "Soon", "deadline": time.Now().Add(6 * time.Hour)})

		events := decodeBody[[]deadline.Event](t, c.do(http.MethodGet, "/notifications/deadlines", nil))
		require.Len(t, events, 1)
		assert.Equal(t, domain.NotificationDeadlineApproaching, events[0].Type)
		assert.Equal(t, domain.PriorityMedium, events[0].Priority)

		c = login(t, handler, "later@example.com", "secret1")
		c.createTodo(map[string]any{"title": "Later", "deadline": time.Now().Add(20 * time.Hour)})

		events = decodeBody[[]deadline.Event](t, c.do(http.MethodGet, "/notifications/deadlines", nil))
		require.Len(t, events, 1)
		assert.Equal(t, domain.NotificationDeadlineApproaching, events[0].Type)
		assert.Equal(t, domain.PriorityLow, events[0].Priority)
	})
}

func TestRouter_NotificationSummary(t *testing.T) {
	handler := newTestApplication(t, testConfig()).setupRouter()
	c := login(t, handler, "summary@example.com", "secret1")

	c.createTodo(map[string]any{"title": "Low", "deadline": time.Now().Add(20 * time.Hour)})
	c.createTodo(map[string]any{"title": "Medium", "deadline": time.Now().Add(6 * time.Hour)})
	c.createTodo(map[string]any{"title": "High", "deadline": time.Now().Add(-time.Hour)})

	// Drop the task_created notifications, then persist one per priority.
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/notifications", nil).Code)
	rec := c.do(http.MethodPost, "/notifications/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]domain.Notification](t, rec), 3)

	rec = c.do(http.MethodGet, "/notifications/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[domain.NotificationSummary](t, rec)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Unread)
	assert.Equal(t, 1, summary.HighPriority)
	assert.Equal(t, 1, summary.MediumPriority)
	assert.Equal(t, 1, summary.LowPriority)
}

func TestRouter_OwnershipIsolation(t *testing.T) {
	handler := newTestApplication(t, testConfig()).setupRouter()
	alice := login(t, handler, "alice@example.com", "secret1")
	bob := login(t, handler, "bob@example.com", "secret1")

	todo := alice.createTodo(map[string]any{"title": "Private"})
	for _, rec := range []*httptest.ResponseRecorder{
		bob.do(http.MethodGet, "/todos/"+todo.ID.String(), nil),
		bob.do(http.MethodPatch, "/todos/"+todo.ID.String()+"/status", map[string]string{"status": "completed"}),
		bob.do(http.MethodDelete, "/todos/"+todo.ID.String(), nil),
	} {
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := alice.do(http.MethodGet, "/todos/"+todo.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.TodoStatusPending, decodeBody[domain.Todo](t, rec).Status)
}

func TestRouter_Middleware(t *testing.T) {
	handler := newTestApplication(t, testConfig()).setupRouter()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	})

	t.Run("protected routes need a token", func(t *testing.T) {
		c := &client{t: t, handler: handler}
		rec := c.do(http.MethodGet, "/todos", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		c.token = "not-a-jwt"
		rec = c.do(http.MethodGet, "/todos", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		c := &client{t: t, handler: handler}
		assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/projects", nil).Code)
	})
}

func TestRouter_AuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AuthRateLimitPerMinute = 1
	cfg.Server.AuthRateLimitBurst = 2
	handler := newTestApplication(t, cfg).setupRouter()

	c := &client{t: t, handler: handler}
	body := map[string]string{"email": "nobody@example.com", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", body).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login", body).Code)

	rec := c.do(http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Refresh is not throttled.
	assert.Equal(t, http.StatusUnauthorized,
		c.do(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "x"}).Code)
}

func TestBuildApplication_DeadlineSweep(t *testing.T) {
	cfg := testConfig()
	cfg.Notifications.SweepEnabled = true
	app := newTestApplication(t, cfg)

	require.NotNil(t, app.scheduler)
	require.NotNil(t, app.workerPool)

	c := login(t, app.setupRouter(), "sweep@example.com", "secret1")
	c.createTodo(map[string]any{"title": "Late", "deadline": time.Now().Add(-time.Hour)})

	ids, err := app.stores.users.ListActiveIDs(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	created, err := app.notificationService.CheckDeadlines(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.NotEqual(t, uuid.Nil, created[0].ID)
}

func TestBuildApplication_BadSweepSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Notifications.SweepEnabled = true
	cfg.Notifications.SweepSchedule = "every now and then"

	db := mocks.NewMemoryDB()
	_, err := buildApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), appStores{
		users:         mocks.NewUserStore(db),
		categories:    mocks.NewCategoryStore(db),
		todos:         mocks.NewTodoStore(db),
		notifications: mocks.NewNotificationStore(db),
		tx:            mocks.NewTxRunner(),
	}, nil)
	assert.ErrorContains(t, err, "deadline sweep")
}
