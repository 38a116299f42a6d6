package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// LifecycleNotifier records task_created and task_completed notifications
// from todo events. Other event types are ignored.
type LifecycleNotifier struct {
	notifications NotificationService
	logger        *slog.Logger
}

var _ events.EventHandler = (*LifecycleNotifier)(nil)

// NewLifecycleNotifier creates a LifecycleNotifier that records through notifications.
func NewLifecycleNotifier(notifications NotificationService, log *slog.Logger) *LifecycleNotifier {
	if notifications == nil {
		panic("notifications cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &LifecycleNotifier{
		notifications: notifications,
		logger:        log.With(slog.String("component", "lifecycle_notifier")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *LifecycleNotifier) HandleEvent(ctx context.Context, event *events.TodoEvent) error {
	var (
		kind  domain.NotificationType
		title string
	)

	todo, err := event.Todo()
	if err != nil {
		return fmt.Errorf("failed to decode todo event payload: %w", err)
	}

	switch event.Type {
	case events.TodoCreated:
		kind, title = domain.NotificationTaskCreated, "New task: "+todo.Title
	case events.TodoCompleted:
		kind, title = domain.NotificationTaskCompleted, "Task completed: "+todo.Title
	default:
		return nil
	}

	todoID := event.TodoID
	n, err := domain.NewNotification(event.UserID, kind, title, "", domain.PriorityLow, &todoID)
	if err != nil {
		return err
	}

	if err := h.notifications.Record(ctx, n); err != nil {
		return fmt.Errorf("failed to record %s notification: %w", kind, err)
	}

	logger.FromContextOrDefault(ctx, h.logger).Debug("lifecycle notification recorded",
		slog.String("type", string(kind)),
		slog.String("todo_id", todoID.String()))
	return nil
}
