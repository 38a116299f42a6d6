package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies why a notification was raised.
type NotificationType string

// Possible notification types
const (
	NotificationDeadlineApproaching NotificationType = "deadline_approaching"
	NotificationDeadlineOverdue     NotificationType = "deadline_overdue"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationTaskCreated         NotificationType = "task_created"
)

// NotificationPriority ranks notifications for display.
type NotificationPriority string

// Possible notification priorities
const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

// Validation errors for Notification
var (
	ErrEmptyNotificationID       = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyNotificationUserID   = NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	ErrEmptyNotificationTitle    = NewValidationError("title", "cannot be empty", ErrEmptyContent)
	ErrInvalidNotificationType   = NewValidationError("type", "is not a known notification type", ErrInvalidEnum)
	ErrInvalidNotificationLevel  = NewValidationError("priority", "must be one of low, medium, high", ErrInvalidEnum)
	ErrNotificationReadTimestamp = NewValidationError("read_at", "must be set exactly when the notification is read", ErrInvalidFormat)
)

// Notification is a persisted message for a user, optionally tied to a todo.
// ReadAt is non-nil exactly when IsRead is true.
type Notification struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Type      NotificationType     `json:"type"`
	Title     string               `json:"title"`
	Message   *string              `json:"message,omitempty"`
	Priority  NotificationPriority `json:"priority"`
	IsRead    bool                 `json:"is_read"`
	TodoID    *uuid.UUID           `json:"todo_id,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
}

// NewNotification creates an unread Notification. An empty message is stored as nil.
// Returns an error if validation fails.
func NewNotification(
	userID uuid.UUID,
	notificationType NotificationType,
	title string,
	message string,
	priority NotificationPriority,
	todoID *uuid.UUID,
) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notificationType,
		Title:     strings.TrimSpace(title),
		Priority:  priority,
		TodoID:    todoID,
		CreatedAt: time.Now().UTC(),
	}
	if message != "" {
		n.Message = &message
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}

	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}

	if !n.Type.Valid() {
		return ErrInvalidNotificationType
	}

	if !n.Priority.Valid() {
		return ErrInvalidNotificationLevel
	}

	if n.IsRead != (n.ReadAt != nil) {
		return ErrNotificationReadTimestamp
	}

	return nil
}

// MarkRead flags the notification read. The first read timestamp is kept on
// repeated calls.
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	at := now.UTC()
	n.IsRead = true
	n.ReadAt = &at
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationDeadlineApproaching, NotificationDeadlineOverdue,
		NotificationTaskCompleted, NotificationTaskCreated:
		return true
	default:
		return false
	}
}

// Valid reports whether p is a known priority.
func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for sorting: high > medium > low.
func (p NotificationPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// NotificationSummary is computed from a user's notifications at query time.
type NotificationSummary struct {
	Total          int             `json:"total"`
	Unread         int             `json:"unread"`
	HighPriority   int             `json:"high_priority"`
	MediumPriority int             `json:"medium_priority"`
	LowPriority    int             `json:"low_priority"`
	Recent         []*Notification `json:"recent_notifications"`
}

// RecentNotificationsInSummary is the number of notifications included in a summary.
const RecentNotificationsInSummary = 5
