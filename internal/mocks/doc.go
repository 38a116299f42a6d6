// Package mocks provides shared test doubles for the stores and transaction
// runner.
//
// The in-memory stores share one MemoryDB, so relations behave as they do in
// PostgreSQL: deleting a category detaches its todos, deleting a todo removes
// its notifications, and listings carry category names. Each store also has
// an Errors map that makes a named method fail, for exercising error paths.
//
//	db := mocks.NewMemoryDB()
//	users := mocks.NewUserStore(db)
//	users.Errors["Create"] = errors.New("boom")
//
// WithTx(nil) returns the same store, which is what TxRunner passes.
package mocks
