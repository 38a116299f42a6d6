package main

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchemaWarnsWhenVersionUnreadable(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	log, buf := logger.NewTestLogger()
	checkSchema(context.Background(), db, log)

	var found bool
	for _, entry := range buf.Entries() {
		if entry["msg"] == "Could not determine schema version" {
			found = true
			assert.Equal(t, "WARN", entry["level"])
		}
	}
	assert.True(t, found, "expected a schema warning in %s", buf.String())
}
