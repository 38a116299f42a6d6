package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/deadline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler_Deadlines(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.signup(t, "deadlines@example.com")
	_, other := a.signup(t, "bystander@example.com")

	now := time.Now()
	soon := createTodo(t, a, token, map[string]any{"title": "Soon", "deadline": now.Add(6 * time.Hour)})
	late := createTodo(t, a, token, map[string]any{"title": "Late", "deadline": now.Add(-49 * time.Hour)})
	createTodo(t, a, token, map[string]any{"title": "Far", "deadline": now.Add(72 * time.Hour)})
	createTodo(t, a, token, map[string]any{"title": "No deadline"})

	// Clear the task_created notifications so only deadline ones remain.
	rec := a.do(t, http.MethodDelete, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decode[DeletedResponse](t, rec).Deleted)

	t.Run("evaluate without persisting", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/notifications/deadlines", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		events := decode[[]deadline.Event](t, rec)
		require.Len(t, events, 2)
		assert.Equal(t, late.ID, events[0].TodoID)
		assert.Equal(t, domain.NotificationDeadlineOverdue, events[0].Type)
		assert.Equal(t, domain.PriorityHigh, events[0].Priority)
		assert.Equal(t, soon.ID, events[1].TodoID)
		assert.Equal(t, domain.PriorityMedium, events[1].Priority)

		rec = a.do(t, http.MethodGet, "/notifications", token, nil)
		assert.Empty(t, decode[[]domain.Notification](t, rec))
	})

	t.Run("check persists once", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/notifications/check", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Notification](t, rec), 2)

		rec = a.do(t, http.MethodPost, "/notifications/check", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]domain.Notification](t, rec))
	})

	t.Run("other users see nothing", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/notifications/deadlines", other, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]deadline.Event](t, rec))
	})
}

func TestNotificationHandler_ReadAndDelete(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.signup(t, "reader@example.com")
	_, other := a.signup(t, "snoop@example.com")

	createTodo(t, a, token, map[string]any{"title": "One"})
	createTodo(t, a, token, map[string]any{"title": "Two"})
	createTodo(t, a, token, map[string]any{"title": "Three"})

	rec := a.do(t, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]domain.Notification](t, rec)
	require.Len(t, all, 3)
	first := all[0]
	path := "/notifications/" + first.ID.String()

	t.Run("get", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, first.ID, decode[domain.Notification](t, rec).ID)

		rec = a.do(t, http.MethodGet, path, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Notification not found", errorMessage(t, rec))
	})

	t.Run("mark read is idempotent", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, path+"/read", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		once := decode[domain.Notification](t, rec)
		assert.True(t, once.IsRead)
		require.NotNil(t, once.ReadAt)

		rec = a.do(t, http.MethodPost, path+"/read", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		twice := decode[domain.Notification](t, rec)
		assert.True(t, once.ReadAt.Equal(*twice.ReadAt))

		rec = a.do(t, http.MethodPost, path+"/read", other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unread only and summary", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/notifications?unread_only=true", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Notification](t, rec), 2)

		rec = a.do(t, http.MethodGet, "/notifications?unread_only=maybe", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = a.do(t, http.MethodGet, "/notifications/summary", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		summary := decode[domain.NotificationSummary](t, rec)
		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 2, summary.Unread)
		assert.Equal(t, 3, summary.LowPriority)
		assert.Len(t, summary.Recent, 3)
	})

	t.Run("read all", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/notifications/read-all", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decode[UpdatedResponse](t, rec).Updated)
	})

	t.Run("delete", func(t *testing.T) {
		rec := a.do(t, http.MethodDelete, path, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(t, http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = a.do(t, http.MethodDelete, "/notifications/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(t, http.MethodDelete, "/notifications", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decode[DeletedResponse](t, rec).Deleted)
	})
}
