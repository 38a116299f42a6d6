// Package deadline classifies open todos against the current time and
// derives the notifications their deadlines call for. Everything here is
// pure: no I/O, no clock reads, no shared state.
package deadline

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// Event is a derived notification for a single todo.
type Event struct {
	TodoID   uuid.UUID                   `json:"todo_id"`
	Type     domain.NotificationType     `json:"type"`
	Title    string                      `json:"title"`
	Message  string                      `json:"message"`
	Priority domain.NotificationPriority `json:"priority"`
	Deadline time.Time                   `json:"deadline"`
}

// Evaluator derives deadline events with a fixed set of thresholds.
type Evaluator struct {
	params Params
}

// NewEvaluator creates an Evaluator, rejecting inconsistent thresholds.
func NewEvaluator(params Params) (*Evaluator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{params: params}, nil
}

// NewDefaultEvaluator creates an Evaluator with DefaultParams.
func NewDefaultEvaluator() *Evaluator {
	return &Evaluator{params: DefaultParams()}
}

// Evaluate returns one event per open todo whose deadline is either inside
// the approaching window or already past. Output order follows input order,
// and identical inputs always yield identical outputs.
func (e *Evaluator) Evaluate(todos []*domain.Todo, now time.Time) []Event {
	events := make([]Event, 0)
	for _, todo := range todos {
		if ev, ok := e.classify(todo, now); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Evaluate is a convenience for NewDefaultEvaluator().Evaluate.
func Evaluate(todos []*domain.Todo, now time.Time) []Event {
	return NewDefaultEvaluator().Evaluate(todos, now)
}

func (e *Evaluator) classify(todo *domain.Todo, now time.Time) (Event, bool) {
	if todo == nil || todo.Deadline == nil || !todo.IsOpen() {
		return Event{}, false
	}

	deadline := *todo.Deadline
	remaining := deadline.Sub(now)

	switch {
	case remaining < 0:
		days := int((-remaining).Hours() / 24)
		return Event{
			TodoID:   todo.ID,
			Type:     domain.NotificationDeadlineOverdue,
			Title:    "Deadline overdue: " + todo.Title,
			Message:  fmt.Sprintf("Overdue by %d days", days),
			Priority: domain.PriorityHigh,
			Deadline: deadline,
		}, true

	case remaining <= e.params.ApproachingWindow:
		hours := int(remaining.Hours())
		priority := domain.PriorityLow
		if remaining <= e.params.UrgentWithin {
			priority = domain.PriorityMedium
		}
		return Event{
			TodoID:   todo.ID,
			Type:     domain.NotificationDeadlineApproaching,
			Title:    "Deadline approaching: " + todo.Title,
			Message:  fmt.Sprintf("Deadline in %d hours", hours),
			Priority: priority,
			Deadline: deadline,
		}, true

	default:
		return Event{}, false
	}
}

// SortForDisplay orders events by priority (high first), then by deadline
// (earliest first). The input slice is sorted in place and returned.
func SortForDisplay(events []Event) []Event {
	sort.SliceStable(events, func(i, j int) bool {
		ri, rj := events[i].Priority.Rank(), events[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return events[i].Deadline.Before(events[j].Deadline)
	})
	return events
}
