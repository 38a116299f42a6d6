package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TodoEventType names the lifecycle change an event describes.
type TodoEventType string

// Todo lifecycle event types
const (
	TodoCreated   TodoEventType = "todo.created"
	TodoUpdated   TodoEventType = "todo.updated"
	TodoCompleted TodoEventType = "todo.completed"
	TodoDeleted   TodoEventType = "todo.deleted"
)

// TodoEvent describes a change to a single todo.
type TodoEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is the kind of change
	Type TodoEventType `json:"type"`

	// UserID owns the todo; handlers scope their side effects to this user
	UserID uuid.UUID `json:"user_id"`

	// TodoID identifies the todo that changed
	TodoID uuid.UUID `json:"todo_id"`

	// Payload is the JSON snapshot of the todo after the change.
	// For TodoDeleted it is the last state before deletion.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTodoEvent creates a TodoEvent of the given type carrying a snapshot of todo.
func NewTodoEvent(eventType TodoEventType, todo *domain.Todo) (*TodoEvent, error) {
	payload, err := json.Marshal(todo)
	if err != nil {
		return nil, err
	}

	return &TodoEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    todo.UserID,
		TodoID:    todo.ID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Todo decodes the snapshot carried by the event.
func (e *TodoEvent) Todo() (*domain.Todo, error) {
	var todo domain.Todo
	if err := json.Unmarshal(e.Payload, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TodoEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TodoEvent) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TodoEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TodoEvent) error {
	return f(ctx, event)
}
