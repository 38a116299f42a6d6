package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TodoFilter narrows a todo listing. Zero values mean "no restriction".
type TodoFilter struct {
	Status     *domain.TodoStatus
	CategoryID *uuid.UUID
	// Search matches case-insensitively against title and description.
	Search string
	Limit  int
	Offset int
}

// TodoStore defines the interface for todo data persistence.
// Every read and write is scoped by the owning user id.
type TodoStore interface {
	// Create saves a new todo.
	// Returns ErrInvalidEntity if the category reference is broken.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves one of the user's todos.
	// Returns ErrTodoNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error)

	// List returns one page of the user's todos, newest first, with their
	// category display fields, plus the number of todos matching the filter.
	List(ctx context.Context, userID uuid.UUID, filter TodoFilter) ([]*domain.TodoWithCategory, int, error)

	// ListByCategory returns the user's todos in the given category, newest first.
	ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]*domain.Todo, error)

	// ListOpenWithDeadline returns the user's pending and in-progress todos
	// that carry a deadline, ordered by deadline.
	ListOpenWithDeadline(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error)

	// Stats counts the user's todos by status. Overdue counts open todos whose
	// deadline is before now.
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TodoStats, error)

	// Update saves title, description, status, category and deadline.
	// The owner never changes.
	// Returns ErrTodoNotFound if it does not exist or belongs to someone else.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete removes the todo together with its notifications.
	// Returns ErrTodoNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a new TodoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TodoStore
}
