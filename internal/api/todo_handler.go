package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// TodoHandler handles todo HTTP requests.
type TodoHandler struct {
	todos  service.TodoService
	logger *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todos service.TodoService, log *slog.Logger) *TodoHandler {
	if todos == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("todos cannot be nil for TodoHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TodoHandler{
		todos:  todos,
		logger: log.With(slog.String("component", "todo_handler")),
	}
}

// Create handles POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateTodoRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	todo, err := h.todos.Create(r.Context(), userID, service.NewTodo{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Deadline:    req.Deadline,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create todo")
		return
	}

	log.Debug("todo created", slog.String("todo_id", todo.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, todo)
}

// List handles GET /todos. It accepts skip, limit, status, category_id and
// search query parameters.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	filter, err := parseTodoFilter(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.todos.List(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list todos")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// Stats handles GET /todos/stats.
func (h *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	stats, err := h.todos.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get todo statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Get handles GET /todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	todo, err := h.todos.Get(r.Context(), userID, todoID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get todo")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// Update handles PUT /todos/{id}.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, todoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	todo, err := h.todos.Update(r.Context(), userID, todoID, todoUpdateFromRequest(req))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update todo")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// UpdateStatus handles PATCH /todos/{id}/status.
func (h *TodoHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, todoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTodoStatusRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	todo, err := h.todos.UpdateStatus(r.Context(), userID, todoID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update todo status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, todo)
}

// Delete handles DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := handleUserIDAndPathUUID(w, r, "id", logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), userID, todoID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete todo")
		return
	}
	shared.RespondNoContent(w)
}

// parseTodoFilter reads the listing filter from the query string.
func parseTodoFilter(r *http.Request) (store.TodoFilter, error) {
	page, err := parsePagination(r, DefaultTodoPageLimit)
	if err != nil {
		return store.TodoFilter{}, err
	}

	q := r.URL.Query()
	filter := store.TodoFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Limit:  page.Limit,
		Offset: page.Skip,
	}

	if raw := q.Get("status"); raw != "" {
		status := domain.TodoStatus(raw)
		if !status.Valid() {
			return store.TodoFilter{}, domain.ErrInvalidTodoStatus
		}
		filter.Status = &status
	}

	if raw := q.Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return store.TodoFilter{}, domain.NewValidationError("category_id", "has invalid format", domain.ErrInvalidID)
		}
		filter.CategoryID = &categoryID
	}

	return filter, nil
}

func todoUpdateFromRequest(req UpdateTodoRequest) service.TodoUpdate {
	return service.TodoUpdate{
		Title:            req.Title,
		Status:           req.Status,
		Description:      req.Description.Ptr(),
		CategoryID:       req.CategoryID.Ptr(),
		Deadline:         req.Deadline.Ptr(),
		ClearDescription: req.Description.Cleared(),
		ClearCategory:    req.CategoryID.Cleared(),
		ClearDeadline:    req.Deadline.Cleared(),
	}
}
