package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
// Every read and write is scoped by the owning user id.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrCategoryNameExists if the user already has a category with that name.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves one of the user's categories.
	// Returns ErrCategoryNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error)

	// GetByName retrieves the user's category with the given name.
	// Returns ErrCategoryNotFound if there is none.
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Category, error)

	// ListByUser returns the user's categories ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Category, error)

	// ListWithCounts returns every category of the user with the number of todos in it.
	ListWithCounts(ctx context.Context, userID uuid.UUID) ([]*domain.CategoryWithCount, error)

	// Update saves the name and color of an existing category.
	// Returns ErrCategoryNotFound or ErrCategoryNameExists.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes the category. Todos referencing it keep existing
	// with their category cleared.
	// Returns ErrCategoryNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a new CategoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
