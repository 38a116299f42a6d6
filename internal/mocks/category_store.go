package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// CategoryStore implements store.CategoryStore in memory.
type CategoryStore struct {
	db *MemoryDB

	// Errors makes the named method return the error instead of running
	Errors map[string]error
}

var _ store.CategoryStore = (*CategoryStore)(nil)

// NewCategoryStore creates a CategoryStore over db.
func NewCategoryStore(db *MemoryDB) *CategoryStore {
	return &CategoryStore{db: db, Errors: make(map[string]error)}
}

// Create implements store.CategoryStore
func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if err := failure(s.Errors, "Create"); err != nil {
		return err
	}
	if err := category.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[category.UserID]; !ok {
		return store.ErrInvalidEntity
	}
	if s.nameTakenLocked(category) {
		return store.ErrCategoryNameExists
	}
	s.db.categories[category.ID] = copyCategory(category)
	return nil
}

// GetByID implements store.CategoryStore
func (s *CategoryStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error) {
	if err := failure(s.Errors, "GetByID"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.categories[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrCategoryNotFound
	}
	return copyCategory(c), nil
}

// GetByName implements store.CategoryStore
func (s *CategoryStore) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Category, error) {
	if err := failure(s.Errors, "GetByName"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, c := range s.db.categories {
		if c.UserID == userID && c.Name == name {
			return copyCategory(c), nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

// ListByUser implements store.CategoryStore
func (s *CategoryStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Category, error) {
	if err := failure(s.Errors, "ListByUser"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return page(s.byNameLocked(userID), limit, offset), nil
}

// ListWithCounts implements store.CategoryStore
func (s *CategoryStore) ListWithCounts(ctx context.Context, userID uuid.UUID) ([]*domain.CategoryWithCount, error) {
	if err := failure(s.Errors, "ListWithCounts"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, t := range s.db.todos {
		if t.UserID == userID && t.CategoryID != nil {
			counts[*t.CategoryID]++
		}
	}

	categories := s.byNameLocked(userID)
	result := make([]*domain.CategoryWithCount, len(categories))
	for i, c := range categories {
		result[i] = &domain.CategoryWithCount{Category: *c, TodoCount: counts[c.ID]}
	}
	return result, nil
}

// Update implements store.CategoryStore
func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if err := failure(s.Errors, "Update"); err != nil {
		return err
	}
	if err := category.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return store.ErrCategoryNotFound
	}
	if s.nameTakenLocked(category) {
		return store.ErrCategoryNameExists
	}
	category.UpdatedAt = time.Now().UTC()
	s.db.categories[category.ID] = copyCategory(category)
	return nil
}

// Delete implements store.CategoryStore
// Todos filed under the category are detached, not deleted.
func (s *CategoryStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := failure(s.Errors, "Delete"); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.categories[id]
	if !ok || c.UserID != userID {
		return store.ErrCategoryNotFound
	}
	delete(s.db.categories, id)
	for _, t := range s.db.todos {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
		}
	}
	return nil
}

// WithTx implements store.CategoryStore
func (s *CategoryStore) WithTx(*sql.Tx) store.CategoryStore {
	return s
}

func (s *CategoryStore) nameTakenLocked(category *domain.Category) bool {
	for _, c := range s.db.categories {
		if c.ID != category.ID && c.UserID == category.UserID && c.Name == category.Name {
			return true
		}
	}
	return false
}

func (s *CategoryStore) byNameLocked(userID uuid.UUID) []*domain.Category {
	categories := make([]*domain.Category, 0)
	for _, c := range s.db.categories {
		if c.UserID == userID {
			categories = append(categories, copyCategory(c))
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories
}
