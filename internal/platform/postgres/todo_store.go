package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

const todoColumns = `id, user_id, title, description, status, category_id, deadline, created_at, updated_at`

// PostgresTodoStore implements the store.TodoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTodoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTodoStore creates a new PostgreSQL implementation of the TodoStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTodoStore(db store.DBTX, logger *slog.Logger) *PostgresTodoStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTodoStore{
		db:     db,
		logger: logger.With(slog.String("component", "todo_store")),
	}
}

// Ensure PostgresTodoStore implements store.TodoStore interface
var _ store.TodoStore = (*PostgresTodoStore)(nil)

// WithTx implements store.TodoStore.WithTx
func (s *PostgresTodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &PostgresTodoStore{db: tx, logger: s.logger}
}

// Create implements store.TodoStore.Create
func (s *PostgresTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO todos (id, user_id, title, description, status, category_id, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Status,
		todo.CategoryID,
		todo.Deadline,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapForeignKeyViolation(err, todosCategoryOwnerConstraint, store.ErrCategoryNotFound)
	}

	log.Debug("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", todo.UserID.String()))
	return nil
}

// GetByID implements store.TodoStore.GetByID
func (s *PostgresTodoStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTodoNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, MapError(err)
	}
	return todo, nil
}

// buildTodoFilter renders the WHERE clause shared by the page query and the count query.
func buildTodoFilter(userID uuid.UUID, filter store.TodoFilter) (string, []any) {
	conditions := []string{"t.user_id = $1"}
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("t.category_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		conditions = append(conditions,
			fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List implements store.TodoStore.List
func (s *PostgresTodoStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TodoFilter,
) ([]*domain.TodoWithCategory, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTodoFilter(userID, filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM todos t WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count todos", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT t.id, t.user_id, t.title, t.description, t.status, t.category_id, t.deadline,
		       t.created_at, t.updated_at, c.name, c.color
		FROM todos t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE %s
		ORDER BY t.created_at DESC, t.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		log.Error("failed to list todos", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.TodoWithCategory{}
	for rows.Next() {
		var item domain.TodoWithCategory
		var status string
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &status, &item.CategoryID,
			&item.Deadline, &item.CreatedAt, &item.UpdatedAt, &item.CategoryName, &item.CategoryColor,
		); err != nil {
			return nil, 0, err
		}
		item.Status = domain.TodoStatus(status)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListByCategory implements store.TodoStore.ListByCategory
func (s *PostgresTodoStore) ListByCategory(
	ctx context.Context,
	userID, categoryID uuid.UUID,
) ([]*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1 AND category_id = $2
		ORDER BY created_at DESC, id
	`
	return s.queryTodos(ctx, query, userID, categoryID)
}

// ListOpenWithDeadline implements store.TodoStore.ListOpenWithDeadline
func (s *PostgresTodoStore) ListOpenWithDeadline(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1
		  AND deadline IS NOT NULL
		  AND status IN ('pending', 'in_progress')
		ORDER BY deadline, id
	`
	return s.queryTodos(ctx, query, userID)
}

func (s *PostgresTodoStore) queryTodos(ctx context.Context, query string, args ...any) ([]*domain.Todo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query todos",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	todos := []*domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// Stats implements store.TodoStore.Stats
func (s *PostgresTodoStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TodoStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress') AND deadline < $2)
		FROM todos
		WHERE user_id = $1
	`
	var stats domain.TodoStats
	err := s.db.QueryRowContext(ctx, query, userID, now.UTC()).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.InProgress,
		&stats.Completed,
		&stats.Cancelled,
		&stats.Overdue,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute todo stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return &stats, nil
}

// Update implements store.TodoStore.Update
func (s *PostgresTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		return err
	}
	todo.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE todos
		SET title = $1, description = $2, status = $3, category_id = $4, deadline = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`
	result, err := s.db.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.Status,
		todo.CategoryID,
		todo.Deadline,
		todo.UpdatedAt,
		todo.ID,
		todo.UserID,
	)
	if err != nil {
		log.Error("failed to update todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapForeignKeyViolation(err, todosCategoryOwnerConstraint, store.ErrCategoryNotFound)
	}
	return CheckRowsAffected(result, store.ErrTodoNotFound)
}

// Delete implements store.TodoStore.Delete
func (s *PostgresTodoStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTodoNotFound)
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var t domain.Todo
	var status string
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &status,
		&t.CategoryID, &t.Deadline, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = domain.TodoStatus(status)
	return &t, nil
}
