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

// NotificationStore implements store.NotificationStore in memory.
type NotificationStore struct {
	db *MemoryDB

	// Errors makes the named method return the error instead of running
	Errors map[string]error
}

var _ store.NotificationStore = (*NotificationStore)(nil)

// NewNotificationStore creates a NotificationStore over db.
func NewNotificationStore(db *MemoryDB) *NotificationStore {
	return &NotificationStore{db: db, Errors: make(map[string]error)}
}

// Create implements store.NotificationStore
func (s *NotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if err := failure(s.Errors, "Create"); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return s.insertLocked(n)
}

// CreateIfAbsent implements store.NotificationStore
func (s *NotificationStore) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	if err := failure(s.Errors, "CreateIfAbsent"); err != nil {
		return false, err
	}
	if err := n.Validate(); err != nil {
		return false, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.notifications {
		if existing.UserID == n.UserID && existing.Type == n.Type && !existing.IsRead &&
			sameTodo(existing.TodoID, n.TodoID) {
			return false, nil
		}
	}
	if err := s.insertLocked(n); err != nil {
		return false, err
	}
	return true, nil
}

// List implements store.NotificationStore
func (s *NotificationStore) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit, offset int,
) ([]*domain.Notification, error) {
	if err := failure(s.Errors, "List"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return page(s.sortedLocked(userID, unreadOnly), limit, offset), nil
}

// GetByID implements store.NotificationStore
func (s *NotificationStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	if err := failure(s.Errors, "GetByID"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n, ok := s.db.notifications[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotificationNotFound
	}
	return copyNotification(n), nil
}

// MarkRead implements store.NotificationStore
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	if err := failure(s.Errors, "MarkRead"); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n, ok := s.db.notifications[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotificationNotFound
	}
	n.MarkRead(s.db.Now())
	return copyNotification(n), nil
}

// MarkAllRead implements store.NotificationStore
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := failure(s.Errors, "MarkAllRead"); err != nil {
		return 0, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := s.db.Now()
	var updated int64
	for _, n := range s.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.MarkRead(now)
			updated++
		}
	}
	return updated, nil
}

// Delete implements store.NotificationStore
func (s *NotificationStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := failure(s.Errors, "Delete"); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n, ok := s.db.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotificationNotFound
	}
	delete(s.db.notifications, id)
	return nil
}

// Clear implements store.NotificationStore
func (s *NotificationStore) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := failure(s.Errors, "Clear"); err != nil {
		return 0, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var deleted int64
	for key, n := range s.db.notifications {
		if n.UserID == userID {
			delete(s.db.notifications, key)
			deleted++
		}
	}
	return deleted, nil
}

// Summary implements store.NotificationStore
func (s *NotificationStore) Summary(ctx context.Context, userID uuid.UUID) (*domain.NotificationSummary, error) {
	if err := failure(s.Errors, "Summary"); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	all := s.sortedLocked(userID, false)
	summary := &domain.NotificationSummary{Total: len(all)}
	for _, n := range all {
		if !n.IsRead {
			summary.Unread++
		}
		switch n.Priority {
		case domain.PriorityHigh:
			summary.HighPriority++
		case domain.PriorityMedium:
			summary.MediumPriority++
		case domain.PriorityLow:
			summary.LowPriority++
		}
	}
	summary.Recent = page(all, domain.RecentNotificationsInSummary, 0)
	return summary, nil
}

// WithTx implements store.NotificationStore
func (s *NotificationStore) WithTx(*sql.Tx) store.NotificationStore {
	return s
}

// insertLocked mirrors the foreign keys on notifications.
func (s *NotificationStore) insertLocked(n *domain.Notification) error {
	if _, ok := s.db.users[n.UserID]; !ok {
		return store.ErrInvalidEntity
	}
	if n.TodoID != nil {
		if _, ok := s.db.todos[*n.TodoID]; !ok {
			return store.ErrInvalidEntity
		}
	}
	s.db.notifications[n.ID] = copyNotification(n)
	return nil
}

func (s *NotificationStore) sortedLocked(userID uuid.UUID, unreadOnly bool) []*domain.Notification {
	result := make([]*domain.Notification, 0)
	for _, n := range s.db.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, copyNotification(n))
		}
	}
	sort.Slice(result, newestFirst(
		func(i int) time.Time { return result[i].CreatedAt },
		func(i int) uuid.UUID { return result[i].ID },
	))
	return result
}

func sameTodo(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
