//go:build integration

package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/require"
)

// testPasswordHash has the shape of a bcrypt digest; fixtures never log in with it.
const testPasswordHash = "$2a$04$0tZ4yJGrAU9UbyJ2vLZ3W.6hAdhRnWi8GbqeE3HgZj0NqbWK7Fmyq"

// CreateTestUser inserts an active user with a unique email.
func CreateTestUser(t *testing.T, db store.DBTX) *domain.User {
	t.Helper()

	user, err := domain.NewUser("user-"+uuid.NewString()+"@example.com", testPasswordHash)
	require.NoError(t, err)

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, hashed_password, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.HashedPassword, user.IsActive, user.CreatedAt, user.UpdatedAt)
	require.NoError(t, err, "Failed to insert test user")
	return user
}

// CreateTestCategory inserts a category owned by userID.
func CreateTestCategory(t *testing.T, db store.DBTX, userID uuid.UUID, name string) *domain.Category {
	t.Helper()

	category, err := domain.NewCategory(userID, name, "")
	require.NoError(t, err)

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO categories (id, user_id, name, color, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		category.ID, category.UserID, category.Name, category.Color, category.CreatedAt, category.UpdatedAt)
	require.NoError(t, err, "Failed to insert test category")
	return category
}

// CreateTestTodo inserts a pending todo owned by userID.
func CreateTestTodo(
	t *testing.T,
	db store.DBTX,
	userID uuid.UUID,
	title string,
	categoryID *uuid.UUID,
	deadline *time.Time,
) *domain.Todo {
	t.Helper()

	todo, err := domain.NewTodo(userID, title, nil, categoryID, deadline)
	require.NoError(t, err)

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO todos (id, user_id, title, description, status, category_id, deadline, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		todo.ID, todo.UserID, todo.Title, todo.Description, string(todo.Status),
		todo.CategoryID, todo.Deadline, todo.CreatedAt, todo.UpdatedAt)
	require.NoError(t, err, "Failed to insert test todo")
	return todo
}
