//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests obtain a migrated connection with GetTestDB and run each case inside
// WithTx, whose transaction is always rolled back. Nothing a test writes is
// visible to other tests, so integration tests may call t.Parallel().
//
//	func TestTodoStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDB(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        user := testdb.CreateTestUser(t, tx)
//	        ...
//	    })
//	}
//
// The DATABASE_URL environment variable selects the database; tests are
// skipped when it is unset.
package testdb
