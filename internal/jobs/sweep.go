package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// ActiveUserLister lists the users a sweep visits. store.UserStore satisfies it.
type ActiveUserLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// DeadlineChecker records deadline notifications for one user.
// service.NotificationService satisfies it.
type DeadlineChecker interface {
	CheckDeadlines(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Users   int
	Created int
	Failed  int
}

// DeadlineSweep checks every active user's deadlines, one pool job per user.
type DeadlineSweep struct {
	users   ActiveUserLister
	checker DeadlineChecker
	queue   *Queue
	logger  *slog.Logger
}

var _ Job = (*DeadlineSweep)(nil)

// NewDeadlineSweep creates a DeadlineSweep that fans out through queue.
func NewDeadlineSweep(users ActiveUserLister, checker DeadlineChecker, queue *Queue, logger *slog.Logger) *DeadlineSweep {
	if users == nil || checker == nil || queue == nil {
		panic("deadline sweep requires users, checker and queue")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadlineSweep{
		users:   users,
		checker: checker,
		queue:   queue,
		logger:  logger.With(slog.String("component", "deadline_sweep")),
	}
}

// Name implements Job
func (s *DeadlineSweep) Name() string { return "deadline_sweep" }

// Run implements Job by discarding the result of Sweep.
func (s *DeadlineSweep) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}

// Sweep enqueues one check per active user and waits for all of them.
// Enqueueing waits for queue space, so every user is checked however many
// there are. A failing user is counted and logged; it does not stop the others.
func (s *DeadlineSweep) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list active users: %w", err)
	}

	var (
		wg      sync.WaitGroup
		created atomic.Int64
		failed  atomic.Int64
	)
	for _, id := range ids {
		userID := id
		wg.Add(1)
		job := JobFunc{
			JobName: "deadline_check",
			Fn: func(context.Context) error {
				defer wg.Done()
				notifications, err := s.checker.CheckDeadlines(ctx, userID)
				if err != nil {
					failed.Add(1)
					s.logger.Error("deadline check failed",
						"user_id", userID,
						"error", err)
					return err
				}
				created.Add(int64(len(notifications)))
				return nil
			},
		}
		if err := s.queue.EnqueueContext(ctx, job); err != nil {
			wg.Done()
			if ctx.Err() != nil {
				break
			}
			failed.Add(1)
			s.logger.Warn("deadline check not enqueued",
				"user_id", userID,
				"error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return SweepResult{Users: len(ids)}, ctx.Err()
	}

	result := SweepResult{Users: len(ids), Created: int(created.Load()), Failed: int(failed.Load())}
	s.logger.Info("deadline sweep finished",
		"users", result.Users,
		"created", result.Created,
		"failed", result.Failed)
	return result, nil
}
