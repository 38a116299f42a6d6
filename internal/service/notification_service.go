package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/deadline"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// NotificationService reads and maintains a user's notifications and turns
// deadline evaluations into persisted notifications.
type NotificationService interface {
	// Record persists a notification as given. It never deduplicates.
	Record(ctx context.Context, n *domain.Notification) error

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	Get(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	Summary(ctx context.Context, userID uuid.UUID) (*domain.NotificationSummary, error)

	// MarkRead flags one notification read. Repeated calls return the same state.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)

	// Deadlines evaluates the user's open todos without persisting anything.
	// Events are ordered for display.
	Deadlines(ctx context.Context, userID uuid.UUID) ([]deadline.Event, error)

	// CheckDeadlines evaluates the user's open todos and persists one
	// notification per event unless an unread one for the same todo and type
	// already exists. Returns the notifications that were created.
	CheckDeadlines(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
}

type notificationServiceImpl struct {
	notifications store.NotificationStore
	todos         store.TodoStore
	tx            store.TxRunner
	evaluator     *deadline.Evaluator
	logger        *slog.Logger
	now           func() time.Time
}

var _ NotificationService = (*notificationServiceImpl)(nil)

// NewNotificationService creates a new NotificationService. A nil evaluator
// selects the default deadline thresholds.
// It returns an error if any of the required dependencies are nil.
func NewNotificationService(
	notifications store.NotificationStore,
	todos store.TodoStore,
	tx store.TxRunner,
	evaluator *deadline.Evaluator,
	log *slog.Logger,
) (NotificationService, error) {
	switch {
	case notifications == nil:
		return nil, &ServiceError{Service: "notification", Operation: "create_service", Message: "notifications cannot be nil"}
	case todos == nil:
		return nil, &ServiceError{Service: "notification", Operation: "create_service", Message: "todos cannot be nil"}
	case tx == nil:
		return nil, &ServiceError{Service: "notification", Operation: "create_service", Message: "tx cannot be nil"}
	}
	if evaluator == nil {
		evaluator = deadline.NewDefaultEvaluator()
	}
	if log == nil {
		log = slog.Default()
	}

	return &notificationServiceImpl{
		notifications: notifications,
		todos:         todos,
		tx:            tx,
		evaluator:     evaluator,
		logger:        log.With(slog.String("component", "notification_service")),
		now:           time.Now,
	}, nil
}

// Record implements NotificationService.Record
func (s *notificationServiceImpl) Record(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return NewServiceError("notification", "record", "failed to save notification", err)
	}
	return nil
}

// List implements NotificationService.List
func (s *notificationServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit, offset int,
) ([]*domain.Notification, error) {
	notifications, err := s.notifications.List(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, NewServiceError("notification", "list", "failed to list notifications", err)
	}
	return notifications, nil
}

// Get implements NotificationService.Get
func (s *notificationServiceImpl) Get(
	ctx context.Context,
	userID, notificationID uuid.UUID,
) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, notificationID, userID)
	if err != nil {
		return nil, NewServiceError("notification", "get", "failed to retrieve notification", err)
	}
	return n, nil
}

// Summary implements NotificationService.Summary
func (s *notificationServiceImpl) Summary(ctx context.Context, userID uuid.UUID) (*domain.NotificationSummary, error) {
	summary, err := s.notifications.Summary(ctx, userID)
	if err != nil {
		return nil, NewServiceError("notification", "summary", "failed to summarise notifications", err)
	}
	return summary, nil
}

// MarkRead implements NotificationService.MarkRead
func (s *notificationServiceImpl) MarkRead(
	ctx context.Context,
	userID, notificationID uuid.UUID,
) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return nil, NewServiceError("notification", "mark_read", "failed to mark notification read", err)
	}
	return n, nil
}

// MarkAllRead implements NotificationService.MarkAllRead
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, NewServiceError("notification", "mark_all_read", "failed to mark notifications read", err)
	}
	return count, nil
}

// Delete implements NotificationService.Delete
func (s *notificationServiceImpl) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notifications.Delete(ctx, notificationID, userID); err != nil {
		return NewServiceError("notification", "delete", "failed to delete notification", err)
	}
	return nil
}

// Clear implements NotificationService.Clear
func (s *notificationServiceImpl) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notifications.Clear(ctx, userID)
	if err != nil {
		return 0, NewServiceError("notification", "clear", "failed to clear notifications", err)
	}
	return count, nil
}

// Deadlines implements NotificationService.Deadlines
func (s *notificationServiceImpl) Deadlines(ctx context.Context, userID uuid.UUID) ([]deadline.Event, error) {
	todos, err := s.todos.ListOpenWithDeadline(ctx, userID)
	if err != nil {
		return nil, NewServiceError("notification", "deadlines", "failed to list todos", err)
	}
	return deadline.SortForDisplay(s.evaluator.Evaluate(todos, s.now().UTC())), nil
}

// CheckDeadlines implements NotificationService.CheckDeadlines
func (s *notificationServiceImpl) CheckDeadlines(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	created := make([]*domain.Notification, 0)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		todos, err := s.todos.WithTx(tx).ListOpenWithDeadline(ctx, userID)
		if err != nil {
			return err
		}

		txNotifications := s.notifications.WithTx(tx)
		for _, ev := range s.evaluator.Evaluate(todos, s.now().UTC()) {
			todoID := ev.TodoID
			n, err := domain.NewNotification(userID, ev.Type, ev.Title, ev.Message, ev.Priority, &todoID)
			if err != nil {
				return err
			}
			inserted, err := txNotifications.CreateIfAbsent(ctx, n)
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("notification", "check_deadlines", "failed to record deadline notifications", err)
	}

	if len(created) > 0 {
		log.Info("deadline notifications recorded",
			slog.String("user_id", userID.String()),
			slog.Int("count", len(created)))
	}
	return created, nil
}
