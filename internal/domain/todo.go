package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

// Possible todo status values
const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusCancelled  TodoStatus = "cancelled"
)

// Field limits for Todo
const (
	MaxTodoTitleLength       = 200
	MaxTodoDescriptionLength = 1000
)

// Validation errors for Todo
var (
	ErrEmptyTodoID         = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyTodoUserID     = NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	ErrEmptyTodoTitle      = NewValidationError("title", "cannot be empty", ErrEmptyContent)
	ErrTodoTitleTooLong    = NewValidationError("title", "must be at most 200 characters", ErrTooLong)
	ErrTodoDescriptionLong = NewValidationError("description", "must be at most 1000 characters", ErrTooLong)
	ErrInvalidTodoStatus   = NewValidationError("status", "must be one of pending, in_progress, completed, cancelled", ErrInvalidEnum)
	ErrInvalidTodoCategory = NewValidationError("category_id", "does not reference one of your categories", ErrInvalidID)
)

// Todo is a user-owned task, optionally categorised and optionally carrying a deadline.
type Todo struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TodoStatus `json:"status"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTodo creates a pending Todo for userID. Deadlines are normalized to UTC.
// Returns an error if validation fails.
func NewTodo(
	userID uuid.UUID,
	title string,
	description *string,
	categoryID *uuid.UUID,
	deadline *time.Time,
) (*Todo, error) {
	now := time.Now().UTC()
	todo := &Todo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      TodoStatusPending,
		CategoryID:  categoryID,
		Deadline:    utcPtr(deadline),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return todo, nil
}

// Validate checks if the Todo has valid data.
func (t *Todo) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTodoID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTodoUserID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTodoTitle
	}

	if utf8.RuneCountInString(t.Title) > MaxTodoTitleLength {
		return ErrTodoTitleTooLong
	}

	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxTodoDescriptionLength {
		return ErrTodoDescriptionLong
	}

	if !t.Status.Valid() {
		return ErrInvalidTodoStatus
	}

	return nil
}

// SetStatus moves the todo to status and bumps UpdatedAt.
// Any transition between valid statuses is allowed.
func (t *Todo) SetStatus(status TodoStatus) error {
	if !status.Valid() {
		return ErrInvalidTodoStatus
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsOpen reports whether the todo can still produce deadline notifications.
func (t *Todo) IsOpen() bool {
	return t.Status != TodoStatusCompleted && t.Status != TodoStatusCancelled
}

// IsOverdue reports whether an open todo's deadline has passed at now.
func (t *Todo) IsOverdue(now time.Time) bool {
	return t.IsOpen() && t.Deadline != nil && t.Deadline.Before(now)
}

// Valid reports whether s is a known status.
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted, TodoStatusCancelled:
		return true
	default:
		return false
	}
}

// TodoWithCategory is a todo as listed, carrying its category's display fields.
type TodoWithCategory struct {
	Todo
	CategoryName  *string `json:"category_name,omitempty"`
	CategoryColor *string `json:"category_color,omitempty"`
}

// TodoStats aggregates a user's todos by status.
type TodoStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Overdue    int `json:"overdue"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
