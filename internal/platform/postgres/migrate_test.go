package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	count, err := MigrationCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	for _, name := range []string{
		"00001_create_users.sql",
		"00002_create_categories.sql",
		"00003_create_todos.sql",
		"00004_create_notifications.sql",
	} {
		content, err := migrationsFS.ReadFile(migrationsDir + "/" + name)
		require.NoError(t, err, name)
		assert.Contains(t, string(content), "-- +goose Up", name)
		assert.Contains(t, string(content), "-- +goose Down", name)
	}
}

func TestMigrateUnknownCommand(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = Migrate(context.Background(), db, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestSchemaStatusDatabaseFailure(t *testing.T) {
	// No expectations: every statement goose issues fails.
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, available, err := SchemaStatus(context.Background(), db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema version")
	assert.Equal(t, 4, available)
}
