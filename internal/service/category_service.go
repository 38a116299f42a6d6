package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// OwnershipAuthorizer decides whether a caller may act on a resource.
// *auth.Guard satisfies it.
type OwnershipAuthorizer interface {
	AuthorizeOwner(ctx context.Context, ownerID, callerID uuid.UUID) error
}

// CategoryUpdate holds the fields of a category update. Nil fields are left unchanged.
type CategoryUpdate struct {
	Name  *string
	Color *string
}

// CategoryService manages a user's categories.
type CategoryService interface {
	Create(ctx context.Context, userID uuid.UUID, name, color string) (*domain.Category, error)
	Get(ctx context.Context, userID, categoryID uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Category, error)
	ListWithCounts(ctx context.Context, userID uuid.UUID) ([]*domain.CategoryWithCount, error)
	Update(ctx context.Context, userID, categoryID uuid.UUID, update CategoryUpdate) (*domain.Category, error)

	// Delete removes the category. Todos in it are kept and become uncategorised.
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error

	// ListTodos returns the todos filed under the category.
	ListTodos(ctx context.Context, userID, categoryID uuid.UUID) ([]*domain.Todo, error)
}

type categoryServiceImpl struct {
	categories store.CategoryStore
	todos      store.TodoStore
	tx         store.TxRunner
	authz      OwnershipAuthorizer
	logger     *slog.Logger
}

var _ CategoryService = (*categoryServiceImpl)(nil)

// NewCategoryService creates a new CategoryService.
// It returns an error if any of the required dependencies are nil.
func NewCategoryService(
	categories store.CategoryStore,
	todos store.TodoStore,
	tx store.TxRunner,
	authz OwnershipAuthorizer,
	log *slog.Logger,
) (CategoryService, error) {
	switch {
	case categories == nil:
		return nil, &ServiceError{Service: "category", Operation: "create_service", Message: "categories cannot be nil"}
	case todos == nil:
		return nil, &ServiceError{Service: "category", Operation: "create_service", Message: "todos cannot be nil"}
	case tx == nil:
		return nil, &ServiceError{Service: "category", Operation: "create_service", Message: "tx cannot be nil"}
	case authz == nil:
		return nil, &ServiceError{Service: "category", Operation: "create_service", Message: "authz cannot be nil"}
	}
	if log == nil {
		log = slog.Default()
	}

	return &categoryServiceImpl{
		categories: categories,
		todos:      todos,
		tx:         tx,
		authz:      authz,
		logger:     log.With(slog.String("component", "category_service")),
	}, nil
}

// Create implements CategoryService.Create
func (s *categoryServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(userID, name, color)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, NewServiceError("category", "create", "failed to save category", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("category created",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", userID.String()))
	return category, nil
}

// Get implements CategoryService.Get
func (s *categoryServiceImpl) Get(ctx context.Context, userID, categoryID uuid.UUID) (*domain.Category, error) {
	category, err := s.owned(ctx, s.categories, userID, categoryID)
	if err != nil {
		return nil, NewServiceError("category", "get", "failed to retrieve category", err)
	}
	return category, nil
}

// List implements CategoryService.List
func (s *categoryServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Category, error) {
	categories, err := s.categories.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewServiceError("category", "list", "failed to list categories", err)
	}
	return categories, nil
}

// ListWithCounts implements CategoryService.ListWithCounts
func (s *categoryServiceImpl) ListWithCounts(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.CategoryWithCount, error) {
	categories, err := s.categories.ListWithCounts(ctx, userID)
	if err != nil {
		return nil, NewServiceError("category", "list_with_counts", "failed to list categories", err)
	}
	return categories, nil
}

// Update implements CategoryService.Update
func (s *categoryServiceImpl) Update(
	ctx context.Context,
	userID, categoryID uuid.UUID,
	update CategoryUpdate,
) (*domain.Category, error) {
	var updated *domain.Category
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txCategories := s.categories.WithTx(tx)

		category, err := s.owned(ctx, txCategories, userID, categoryID)
		if err != nil {
			return err
		}

		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			if name != category.Name {
				existing, err := txCategories.GetByName(ctx, userID, name)
				switch {
				case err == nil && existing.ID != category.ID:
					return store.ErrCategoryNameExists
				case err != nil && !errors.Is(err, store.ErrNotFound):
					return err
				}
			}
			category.Name = name
		}
		if update.Color != nil {
			category.Color = *update.Color
		}

		if err := category.Validate(); err != nil {
			return err
		}
		if err := txCategories.Update(ctx, category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, NewServiceError("category", "update", "failed to update category", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("category updated", slog.String("category_id", categoryID.String()))
	return updated, nil
}

// Delete implements CategoryService.Delete
func (s *categoryServiceImpl) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txCategories := s.categories.WithTx(tx)
		if _, err := s.owned(ctx, txCategories, userID, categoryID); err != nil {
			return err
		}
		return txCategories.Delete(ctx, categoryID, userID)
	})
	if err != nil {
		return NewServiceError("category", "delete", "failed to delete category", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("category deleted", slog.String("category_id", categoryID.String()))
	return nil
}

// ListTodos implements CategoryService.ListTodos
func (s *categoryServiceImpl) ListTodos(
	ctx context.Context,
	userID, categoryID uuid.UUID,
) ([]*domain.Todo, error) {
	if _, err := s.owned(ctx, s.categories, userID, categoryID); err != nil {
		return nil, NewServiceError("category", "list_todos", "failed to retrieve category", err)
	}

	todos, err := s.todos.ListByCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, NewServiceError("category", "list_todos", "failed to list todos", err)
	}
	return todos, nil
}

// owned loads a category and checks that userID owns it.
func (s *categoryServiceImpl) owned(
	ctx context.Context,
	categories store.CategoryStore,
	userID, categoryID uuid.UUID,
) (*domain.Category, error) {
	category, err := categories.GetByID(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.AuthorizeOwner(ctx, category.UserID, userID); err != nil {
		return nil, hideForeign(err, store.ErrCategoryNotFound)
	}
	return category, nil
}
