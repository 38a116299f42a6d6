// Package service contains the application use cases of the to-do API. It
// orchestrates domain objects, the stores defined in internal/store and the
// auth primitives in internal/service/auth.
//
// Services receive their dependencies through constructor injection and
// never depend on a specific infrastructure implementation. Multi-statement
// mutations run inside a store.TxRunner unit of work, and every lookup of a
// user-owned resource passes through an ownership check.
//
// A resource that exists but belongs to another user is reported with the
// resource's not-found error, so callers cannot tell it apart from one that
// does not exist.
package service
