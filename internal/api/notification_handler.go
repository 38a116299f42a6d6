package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// NotificationHandler handles notification HTTP requests.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationService, log *slog.Logger) *NotificationHandler {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notifications cannot be nil for NotificationHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        log.With(slog.String("component", "notification_handler")),
	}
}

// List handles GET /notifications?skip&limit&unread_only.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	page, err := parsePagination(r, DefaultNotificationLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread_only"); raw != "" {
		unreadOnly, err = strconv.ParseBool(raw)
		if err != nil {
			HandleAPIError(w, r,
				domain.NewValidationError("unread_only", "must be true or false", domain.ErrInvalidFormat), "")
			return
		}
	}

	notifications, err := h.notifications.List(r.Context(), userID, unreadOnly, page.Limit, page.Skip)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// Summary handles GET /notifications/summary.
func (h *NotificationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	summary, err := h.notifications.Summary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to summarise notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Deadlines handles GET /notifications/deadlines. Nothing is persisted.
func (h *NotificationHandler) Deadlines(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	events, err := h.notifications.Deadlines(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to evaluate deadlines")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, events)
}

// Check handles POST /notifications/check and returns the notifications it created.
func (h *NotificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	created, err := h.notifications.CheckDeadlines(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check deadlines")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, created)
}

// Get handles GET /notifications/{id}.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id",
		logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	n, err := h.notifications.Get(r.Context(), userID, notificationID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get notification")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, n)
}

// MarkRead handles POST /notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id",
		logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notification read")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, n)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notifications read")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UpdatedResponse{Updated: updated})
}

// Delete handles DELETE /notifications/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id",
		logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), userID, notificationID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete notification")
		return
	}
	shared.RespondNoContent(w)
}

// Clear handles DELETE /notifications.
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	deleted, err := h.notifications.Clear(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeletedResponse{Deleted: deleted})
}
