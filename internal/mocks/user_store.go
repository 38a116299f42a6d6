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

// UserStore implements store.UserStore in memory.
type UserStore struct {
	db *MemoryDB

	// Errors makes the named method return the error instead of running
	Errors map[string]error
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore over db.
func NewUserStore(db *MemoryDB) *UserStore {
	return &UserStore{db: db, Errors: make(map[string]error)}
}

// Create implements store.UserStore
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := failure(s.Errors, "Create"); err != nil {
		return err
	}
	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.db.users[user.ID] = copyUser(user)
	return nil
}

// GetByID implements store.UserStore
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := failure(s.Errors, "GetByID"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return copyUser(u), nil
}

// GetByEmail implements store.UserStore
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := failure(s.Errors, "GetByEmail"); err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements store.UserStore
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := failure(s.Errors, "Update"); err != nil {
		return err
	}
	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	for _, u := range s.db.users {
		if u.ID != user.ID && u.Email == user.Email {
			return store.ErrEmailExists
		}
	}

	user.UpdatedAt = time.Now().UTC()
	user.IsActive = existing.IsActive
	s.db.users[user.ID] = copyUser(user)
	return nil
}

// SetActive implements store.UserStore
func (s *UserStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := failure(s.Errors, "SetActive"); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ListActiveIDs implements store.UserStore
func (s *UserStore) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := failure(s.Errors, "ListActiveIDs"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	active := make([]*domain.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })

	ids := make([]uuid.UUID, len(active))
	for i, u := range active {
		ids[i] = u.ID
	}
	return ids, nil
}

// Delete implements store.UserStore
// A user's categories, todos and notifications go with it.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := failure(s.Errors, "Delete"); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.users, id)
	for key, c := range s.db.categories {
		if c.UserID == id {
			delete(s.db.categories, key)
		}
	}
	for key, t := range s.db.todos {
		if t.UserID == id {
			delete(s.db.todos, key)
		}
	}
	for key, n := range s.db.notifications {
		if n.UserID == id {
			delete(s.db.notifications, key)
		}
	}
	return nil
}

// WithTx implements store.UserStore
func (s *UserStore) WithTx(*sql.Tx) store.UserStore {
	return s
}
