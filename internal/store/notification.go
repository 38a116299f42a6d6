package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
// Every read and write is scoped by the owning user id.
type NotificationStore interface {
	// Create saves a notification unconditionally.
	Create(ctx context.Context, n *domain.Notification) error

	// CreateIfAbsent saves the notification unless an unread notification with
	// the same user, todo and type already exists. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error)

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)

	// GetByID retrieves one of the user's notifications.
	// Returns ErrNotificationNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)

	// MarkRead flags the notification as read and returns its new state.
	// Repeating the call leaves read_at unchanged.
	// Returns ErrNotificationNotFound if it does not exist or belongs to someone else.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)

	// MarkAllRead flags every unread notification of the user and returns how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// Delete removes one notification.
	// Returns ErrNotificationNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// Clear removes every notification of the user and returns how many were removed.
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)

	// Summary computes counts and the most recent notifications from the stored rows.
	Summary(ctx context.Context, userID uuid.UUID) (*domain.NotificationSummary, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
