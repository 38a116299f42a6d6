package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "api-test-secret-that-is-at-least-32-chars"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAPI is the full handler set over in-memory stores.
type testAPI struct {
	db      *mocks.MemoryDB
	users   *mocks.UserStore
	todos   *mocks.TodoStore
	tokens  auth.JWTService
	userSvc service.UserService
	router  http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := discardLogger()

	db := mocks.NewMemoryDB()
	users := mocks.NewUserStore(db)
	categories := mocks.NewCategoryStore(db)
	todos := mocks.NewTodoStore(db)
	notifications := mocks.NewNotificationStore(db)
	tx := mocks.NewTxRunner()

	tokens, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                    testSecret,
		AccessTokenLifetimeMinutes:   30,
		RefreshTokenLifetimeMinutes:  60,
		PasswordResetLifetimeMinutes: 15,
		BcryptCost:                   bcrypt.MinCost,
	})
	require.NoError(t, err)
	guard := auth.NewGuard(tokens, users, log)

	userSvc, err := service.NewUserService(users, tx, auth.NewBcryptHasher(bcrypt.MinCost), tokens, log)
	require.NoError(t, err)
	categorySvc, err := service.NewCategoryService(categories, todos, tx, guard, log)
	require.NoError(t, err)
	notificationSvc, err := service.NewNotificationService(notifications, todos, tx, nil, log)
	require.NoError(t, err)

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(service.NewLifecycleNotifier(notificationSvc, log))
	todoSvc, err := service.NewTodoService(service.TodoServiceDeps{
		Todos:      todos,
		Categories: categories,
		Tx:         tx,
		Authz:      guard,
		Emitter:    emitter,
	}, log)
	require.NoError(t, err)

	authHandler := NewAuthHandler(userSvc, log)
	userHandler := NewUserHandler(userSvc, log)
	categoryHandler := NewCategoryHandler(categorySvc, log)
	todoHandler := NewTodoHandler(todoSvc, log)
	notificationHandler := NewNotificationHandler(notificationSvc, log)
	authMiddleware := middleware.NewAuthMiddleware(guard, log)

	r := chi.NewRouter()
	r.Use(middleware.Trace(log))
	r.Get("/health", NewHealthHandler(nil, log).Health)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)
	r.Post("/auth/password-reset", authHandler.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/users/me", userHandler.Me)
		r.Put("/users/me", userHandler.UpdateMe)
		r.Post("/users/me/password", userHandler.ChangePassword)

		r.Post("/categories", categoryHandler.Create)
		r.Get("/categories", categoryHandler.List)
		r.Get("/categories/with-counts", categoryHandler.ListWithCounts)
		r.Get("/categories/{id}", categoryHandler.Get)
		r.Put("/categories/{id}", categoryHandler.Update)
		r.Delete("/categories/{id}", categoryHandler.Delete)
		r.Get("/categories/{id}/todos", categoryHandler.ListTodos)

		r.Post("/todos", todoHandler.Create)
		r.Get("/todos", todoHandler.List)
		r.Get("/todos/stats", todoHandler.Stats)
		r.Get("/todos/{id}", todoHandler.Get)
		r.Put("/todos/{id}", todoHandler.Update)
		r.Patch("/todos/{id}/status", todoHandler.UpdateStatus)
		r.Delete("/todos/{id}", todoHandler.Delete)

		r.Get("/notifications", notificationHandler.List)
		r.Delete("/notifications", notificationHandler.Clear)
		r.Get("/notifications/summary", notificationHandler.Summary)
		r.Get("/notifications/deadlines", notificationHandler.Deadlines)
		r.Post("/notifications/check", notificationHandler.Check)
		r.Post("/notifications/read-all", notificationHandler.MarkAllRead)
		r.Get("/notifications/{id}", notificationHandler.Get)
		r.Post("/notifications/{id}/read", notificationHandler.MarkRead)
		r.Delete("/notifications/{id}", notificationHandler.Delete)
	})

	return &testAPI{
		db:      db,
		users:   users,
		todos:   todos,
		tokens:  tokens,
		userSvc: userSvc,
		router:  r,
	}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and returns an access token for it.
func (a *testAPI) signup(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	user, err := a.userSvc.Register(context.Background(), email, "password123")
	require.NoError(t, err)
	pair, err := a.userSvc.Login(context.Background(), email, "password123")
	require.NoError(t, err)
	return user.ID, pair.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec).Error
}

func createTodo(t *testing.T, a *testAPI, token string, body map[string]any) domain.Todo {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/todos", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Todo](t, rec)
}
