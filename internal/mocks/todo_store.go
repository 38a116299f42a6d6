package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// TodoStore implements store.TodoStore in memory.
type TodoStore struct {
	db *MemoryDB

	// Errors makes the named method return the error instead of running
	Errors map[string]error
}

var _ store.TodoStore = (*TodoStore)(nil)

// NewTodoStore creates a TodoStore over db.
func NewTodoStore(db *MemoryDB) *TodoStore {
	return &TodoStore{db: db, Errors: make(map[string]error)}
}

// Create implements store.TodoStore
func (s *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	if err := failure(s.Errors, "Create"); err != nil {
		return err
	}
	if err := todo.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.checkRefsLocked(todo); err != nil {
		return err
	}
	s.db.todos[todo.ID] = copyTodo(todo)
	return nil
}

// GetByID implements store.TodoStore
func (s *TodoStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error) {
	if err := failure(s.Errors, "GetByID"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, ok := s.db.todos[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTodoNotFound
	}
	return copyTodo(t), nil
}

// List implements store.TodoStore
func (s *TodoStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TodoFilter,
) ([]*domain.TodoWithCategory, int, error) {
	if err := failure(s.Errors, "List"); err != nil {
		return nil, 0, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*domain.Todo, 0)
	for _, t := range s.db.todos {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		matched = append(matched, t)
	}
	sortNewestFirst(matched)

	items := make([]*domain.TodoWithCategory, 0)
	for _, t := range page(matched, filter.Limit, filter.Offset) {
		item := &domain.TodoWithCategory{Todo: *copyTodo(t)}
		if t.CategoryID != nil {
			if c, ok := s.db.categories[*t.CategoryID]; ok {
				name, color := c.Name, c.Color
				item.CategoryName, item.CategoryColor = &name, &color
			}
		}
		items = append(items, item)
	}
	return items, len(matched), nil
}

// ListByCategory implements store.TodoStore
func (s *TodoStore) ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]*domain.Todo, error) {
	if err := failure(s.Errors, "ListByCategory"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.collectLocked(func(t *domain.Todo) bool {
		return t.UserID == userID && t.CategoryID != nil && *t.CategoryID == categoryID
	}, sortNewestFirst), nil
}

// ListOpenWithDeadline implements store.TodoStore
func (s *TodoStore) ListOpenWithDeadline(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error) {
	if err := failure(s.Errors, "ListOpenWithDeadline"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.collectLocked(func(t *domain.Todo) bool {
		return t.UserID == userID && t.IsOpen() && t.Deadline != nil
	}, func(todos []*domain.Todo) {
		sort.Slice(todos, func(i, j int) bool {
			if !todos[i].Deadline.Equal(*todos[j].Deadline) {
				return todos[i].Deadline.Before(*todos[j].Deadline)
			}
			return todos[i].ID.String() < todos[j].ID.String()
		})
	}), nil
}

// Stats implements store.TodoStore
func (s *TodoStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TodoStats, error) {
	if err := failure(s.Errors, "Stats"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var stats domain.TodoStats
	for _, t := range s.db.todos {
		if t.UserID != userID {
			continue
		}
		stats.Total++
		switch t.Status {
		case domain.TodoStatusPending:
			stats.Pending++
		case domain.TodoStatusInProgress:
			stats.InProgress++
		case domain.TodoStatusCompleted:
			stats.Completed++
		case domain.TodoStatusCancelled:
			stats.Cancelled++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return &stats, nil
}

// Update implements store.TodoStore
func (s *TodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	if err := failure(s.Errors, "Update"); err != nil {
		return err
	}
	if err := todo.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.todos[todo.ID]
	if !ok || existing.UserID != todo.UserID {
		return store.ErrTodoNotFound
	}
	if err := s.checkRefsLocked(todo); err != nil {
		return err
	}
	todo.UpdatedAt = time.Now().UTC()
	todo.CreatedAt = existing.CreatedAt
	s.db.todos[todo.ID] = copyTodo(todo)
	return nil
}

// Delete implements store.TodoStore
// Notifications attached to the todo are removed with it.
func (s *TodoStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := failure(s.Errors, "Delete"); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.todos[id]
	if !ok || t.UserID != userID {
		return store.ErrTodoNotFound
	}
	delete(s.db.todos, id)
	for key, n := range s.db.notifications {
		if n.TodoID != nil && *n.TodoID == id {
			delete(s.db.notifications, key)
		}
	}
	return nil
}

// WithTx implements store.TodoStore
func (s *TodoStore) WithTx(*sql.Tx) store.TodoStore {
	return s
}

// checkRefsLocked mirrors the foreign keys on todos.
func (s *TodoStore) checkRefsLocked(todo *domain.Todo) error {
	if _, ok := s.db.users[todo.UserID]; !ok {
		return store.ErrInvalidEntity
	}
	if todo.CategoryID != nil {
		if _, ok := s.db.categories[*todo.CategoryID]; !ok {
			return store.ErrInvalidEntity
		}
	}
	return nil
}

func (s *TodoStore) collectLocked(keep func(*domain.Todo) bool, order func([]*domain.Todo)) []*domain.Todo {
	todos := make([]*domain.Todo, 0)
	for _, t := range s.db.todos {
		if keep(t) {
			todos = append(todos, copyTodo(t))
		}
	}
	order(todos)
	return todos
}

func matchesSearch(t *domain.Todo, search string) bool {
	if strings.Contains(strings.ToLower(t.Title), search) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), search)
}

func sortNewestFirst(todos []*domain.Todo) {
	sort.Slice(todos, newestFirst(
		func(i int) time.Time { return todos[i].CreatedAt },
		func(i int) uuid.UUID { return todos[i].ID },
	))
}
