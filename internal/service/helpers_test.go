package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockEventEmitter mocks events.EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TodoEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// eventOfType matches emitted events by type.
func eventOfType(eventType events.TodoEventType) any {
	return mock.MatchedBy(func(e *events.TodoEvent) bool { return e.Type == eventType })
}

// harness wires services over one in-memory database.
type harness struct {
	db            *mocks.MemoryDB
	users         *mocks.UserStore
	categories    *mocks.CategoryStore
	todos         *mocks.TodoStore
	notifications *mocks.NotificationStore
	tx            *mocks.TxRunner
	hasher        *auth.BcryptHasher
	tokens        auth.JWTService
	guard         *auth.Guard
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := mocks.NewMemoryDB()
	h := &harness{
		db:            db,
		users:         mocks.NewUserStore(db),
		categories:    mocks.NewCategoryStore(db),
		todos:         mocks.NewTodoStore(db),
		notifications: mocks.NewNotificationStore(db),
		tx:            mocks.NewTxRunner(),
		hasher:        auth.NewBcryptHasher(bcrypt.MinCost),
	}

	tokens, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                    testSecret,
		AccessTokenLifetimeMinutes:   30,
		RefreshTokenLifetimeMinutes:  60,
		PasswordResetLifetimeMinutes: 15,
		BcryptCost:                   bcrypt.MinCost,
	})
	require.NoError(t, err)
	h.tokens = tokens
	h.guard = auth.NewGuard(tokens, h.users, discardLogger())
	return h
}

func (h *harness) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	digest, err := h.hasher.Hash("password123")
	require.NoError(t, err)
	user, err := domain.NewUser(email, digest)
	require.NoError(t, err)
	require.NoError(t, h.users.Create(context.Background(), user))
	return user
}

func (h *harness) createTodo(t *testing.T, userID uuid.UUID, title string, deadline *time.Time) *domain.Todo {
	t.Helper()
	todo, err := domain.NewTodo(userID, title, nil, nil, deadline)
	require.NoError(t, err)
	require.NoError(t, h.todos.Create(context.Background(), todo))
	return todo
}

func (h *harness) userService(t *testing.T) UserService {
	t.Helper()
	svc, err := NewUserService(h.users, h.tx, h.hasher, h.tokens, discardLogger())
	require.NoError(t, err)
	return svc
}

func (h *harness) categoryService(t *testing.T) CategoryService {
	t.Helper()
	svc, err := NewCategoryService(h.categories, h.todos, h.tx, h.guard, discardLogger())
	require.NoError(t, err)
	return svc
}

func (h *harness) notificationService(t *testing.T, now time.Time) *notificationServiceImpl {
	t.Helper()
	svc, err := NewNotificationService(h.notifications, h.todos, h.tx, nil, discardLogger())
	require.NoError(t, err)
	impl := svc.(*notificationServiceImpl)
	impl.now = func() time.Time { return now }
	return impl
}

func ptr[T any](v T) *T {
	return &v
}
