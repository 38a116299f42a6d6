package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/cache"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// NewTodo holds the fields of a todo to create.
type NewTodo struct {
	Title       string
	Description *string
	CategoryID  *uuid.UUID
	Deadline    *time.Time
}

// TodoUpdate holds the fields of a todo update. Nil fields are left unchanged;
// the Clear flags set the matching optional field to null.
type TodoUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TodoStatus
	CategoryID  *uuid.UUID
	Deadline    *time.Time

	ClearDescription bool
	ClearCategory    bool
	ClearDeadline    bool
}

// TodoPage is one page of a filtered todo listing.
type TodoPage struct {
	Items []*domain.TodoWithCategory `json:"items"`
	Total int                        `json:"total"`
	Page  int                        `json:"page"`
	Size  int                        `json:"size"`
	Pages int                        `json:"pages"`
}

// TodoService manages a user's todos.
type TodoService interface {
	Create(ctx context.Context, userID uuid.UUID, input NewTodo) (*domain.Todo, error)
	Get(ctx context.Context, userID, todoID uuid.UUID) (*domain.Todo, error)
	List(ctx context.Context, userID uuid.UUID, filter store.TodoFilter) (*TodoPage, error)

	// Stats returns per-status counts. Results are served from the cache when enabled.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.TodoStats, error)

	Update(ctx context.Context, userID, todoID uuid.UUID, update TodoUpdate) (*domain.Todo, error)
	UpdateStatus(ctx context.Context, userID, todoID uuid.UUID, status domain.TodoStatus) (*domain.Todo, error)
	Delete(ctx context.Context, userID, todoID uuid.UUID) error
}

// TodoStatsKey is the cache key of a user's todo statistics.
func TodoStatsKey(userID uuid.UUID) string {
	return "todo:stats:" + userID.String()
}

type todoServiceImpl struct {
	todos      store.TodoStore
	categories store.CategoryStore
	tx         store.TxRunner
	authz      OwnershipAuthorizer
	emitter    events.EventEmitter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

var _ TodoService = (*todoServiceImpl)(nil)

// TodoServiceDeps groups the collaborators of the todo service.
// Emitter and Cache are optional.
type TodoServiceDeps struct {
	Todos      store.TodoStore
	Categories store.CategoryStore
	Tx         store.TxRunner
	Authz      OwnershipAuthorizer
	Emitter    events.EventEmitter
	Cache      cache.Cache
	CacheTTL   time.Duration
}

// NewTodoService creates a new TodoService.
// It returns an error if any of the required dependencies are nil.
func NewTodoService(deps TodoServiceDeps, log *slog.Logger) (TodoService, error) {
	switch {
	case deps.Todos == nil:
		return nil, &ServiceError{Service: "todo", Operation: "create_service", Message: "todos cannot be nil"}
	case deps.Categories == nil:
		return nil, &ServiceError{Service: "todo", Operation: "create_service", Message: "categories cannot be nil"}
	case deps.Tx == nil:
		return nil, &ServiceError{Service: "todo", Operation: "create_service", Message: "tx cannot be nil"}
	case deps.Authz == nil:
		return nil, &ServiceError{Service: "todo", Operation: "create_service", Message: "authz cannot be nil"}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NoopCache{}
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &todoServiceImpl{
		todos:      deps.Todos,
		categories: deps.Categories,
		tx:         deps.Tx,
		authz:      deps.Authz,
		emitter:    deps.Emitter,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     log.With(slog.String("component", "todo_service")),
		now:        time.Now,
	}, nil
}

// Create implements TodoService.Create
// The category check and the insert share a transaction.
func (s *todoServiceImpl) Create(ctx context.Context, userID uuid.UUID, input NewTodo) (*domain.Todo, error) {
	todo, err := domain.NewTodo(userID, input.Title, input.Description, input.CategoryID, input.Deadline)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkCategory(ctx, s.categories.WithTx(tx), userID, todo.CategoryID); err != nil {
			return err
		}
		return s.todos.WithTx(tx).Create(ctx, todo)
	})
	if err != nil {
		return nil, NewServiceError("todo", "create", "failed to save todo", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", userID.String()))

	s.emit(ctx, events.TodoCreated, todo)
	return todo, nil
}

// Get implements TodoService.Get
func (s *todoServiceImpl) Get(ctx context.Context, userID, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.owned(ctx, s.todos, userID, todoID)
	if err != nil {
		return nil, NewServiceError("todo", "get", "failed to retrieve todo", err)
	}
	return todo, nil
}

// List implements TodoService.List
func (s *todoServiceImpl) List(ctx context.Context, userID uuid.UUID, filter store.TodoFilter) (*TodoPage, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.todos.List(ctx, userID, filter)
	if err != nil {
		return nil, NewServiceError("todo", "list", "failed to list todos", err)
	}

	return newTodoPage(items, total, filter.Limit, filter.Offset), nil
}

// Stats implements TodoService.Stats
func (s *todoServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*domain.TodoStats, error) {
	stats, err := cache.GetOrLoad(ctx, s.cache, TodoStatsKey(userID), s.cacheTTL,
		func(ctx context.Context) (*domain.TodoStats, error) {
			return s.todos.Stats(ctx, userID, s.now().UTC())
		})
	if err != nil {
		return nil, NewServiceError("todo", "stats", "failed to compute statistics", err)
	}
	return stats, nil
}

// Update implements TodoService.Update
func (s *todoServiceImpl) Update(
	ctx context.Context,
	userID, todoID uuid.UUID,
	update TodoUpdate,
) (*domain.Todo, error) {
	var (
		updated   *domain.Todo
		completed bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTodos := s.todos.WithTx(tx)

		todo, err := s.owned(ctx, txTodos, userID, todoID)
		if err != nil {
			return err
		}
		previous := todo.Status

		if err := applyTodoUpdate(todo, update); err != nil {
			return err
		}
		if update.CategoryID != nil {
			if err := s.checkCategory(ctx, s.categories.WithTx(tx), userID, todo.CategoryID); err != nil {
				return err
			}
		}
		if err := todo.Validate(); err != nil {
			return err
		}
		if err := txTodos.Update(ctx, todo); err != nil {
			return err
		}

		updated = todo
		completed = previous != domain.TodoStatusCompleted && todo.Status == domain.TodoStatusCompleted
		return nil
	})
	if err != nil {
		return nil, NewServiceError("todo", "update", "failed to update todo", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("todo updated", slog.String("todo_id", todoID.String()))

	s.emit(ctx, events.TodoUpdated, updated)
	if completed {
		s.emit(ctx, events.TodoCompleted, updated)
	}
	return updated, nil
}

// UpdateStatus implements TodoService.UpdateStatus
func (s *todoServiceImpl) UpdateStatus(
	ctx context.Context,
	userID, todoID uuid.UUID,
	status domain.TodoStatus,
) (*domain.Todo, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidTodoStatus
	}
	return s.Update(ctx, userID, todoID, TodoUpdate{Status: &status})
}

// Delete implements TodoService.Delete
// Notifications attached to the todo are removed with it.
func (s *todoServiceImpl) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	var deleted *domain.Todo
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txTodos := s.todos.WithTx(tx)

		todo, err := s.owned(ctx, txTodos, userID, todoID)
		if err != nil {
			return err
		}
		if err := txTodos.Delete(ctx, todoID, userID); err != nil {
			return err
		}
		deleted = todo
		return nil
	})
	if err != nil {
		return NewServiceError("todo", "delete", "failed to delete todo", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("todo deleted", slog.String("todo_id", todoID.String()))

	s.emit(ctx, events.TodoDeleted, deleted)
	return nil
}

// owned loads a todo and checks that userID owns it.
func (s *todoServiceImpl) owned(
	ctx context.Context,
	todos store.TodoStore,
	userID, todoID uuid.UUID,
) (*domain.Todo, error) {
	todo, err := todos.GetByID(ctx, todoID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeOwner(ctx, todo.UserID, userID); err != nil {
		return nil, hideForeign(err, store.ErrTodoNotFound)
	}
	return todo, nil
}

// checkCategory ensures categoryID, when set, names one of userID's categories.
func (s *todoServiceImpl) checkCategory(
	ctx context.Context,
	categories store.CategoryStore,
	userID uuid.UUID,
	categoryID *uuid.UUID,
) error {
	if categoryID == nil {
		return nil
	}
	category, err := categories.GetByID(ctx, *categoryID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrInvalidTodoCategory
		}
		return err
	}
	if category.UserID != userID {
		return domain.ErrInvalidTodoCategory
	}
	return nil
}

// emit publishes a lifecycle event after a committed change. Failures are
// logged; the change itself has already succeeded.
func (s *todoServiceImpl) emit(ctx context.Context, eventType events.TodoEventType, todo *domain.Todo) {
	cache.Invalidate(ctx, s.cache, TodoStatsKey(todo.UserID))

	if s.emitter == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	event, err := events.NewTodoEvent(eventType, todo)
	if err != nil {
		log.Error("failed to build todo event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("todo event handlers failed",
			slog.String("error", err.Error()),
			slog.String("event_type", string(eventType)),
			slog.String("todo_id", todo.ID.String()))
	}
}

func applyTodoUpdate(todo *domain.Todo, update TodoUpdate) error {
	if update.Title != nil {
		todo.Title = strings.TrimSpace(*update.Title)
	}

	switch {
	case update.ClearDescription:
		todo.Description = nil
	case update.Description != nil:
		description := *update.Description
		todo.Description = &description
	}

	switch {
	case update.ClearCategory:
		todo.CategoryID = nil
	case update.CategoryID != nil:
		categoryID := *update.CategoryID
		todo.CategoryID = &categoryID
	}

	switch {
	case update.ClearDeadline:
		todo.Deadline = nil
	case update.Deadline != nil:
		deadline := update.Deadline.UTC()
		todo.Deadline = &deadline
	}

	if update.Status != nil {
		return todo.SetStatus(*update.Status)
	}
	todo.UpdatedAt = time.Now().UTC()
	return nil
}

func newTodoPage(items []*domain.TodoWithCategory, total, limit, offset int) *TodoPage {
	if items == nil {
		items = []*domain.TodoWithCategory{}
	}
	page := &TodoPage{Items: items, Total: total, Size: limit, Page: 1}
	if limit > 0 {
		page.Page = offset/limit + 1
		page.Pages = (total + limit - 1) / limit
	}
	return page
}
