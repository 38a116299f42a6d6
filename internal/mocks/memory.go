package mocks

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// MemoryDB is the shared state behind the in-memory stores.
type MemoryDB struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*domain.User
	categories    map[uuid.UUID]*domain.Category
	todos         map[uuid.UUID]*domain.Todo
	notifications map[uuid.UUID]*domain.Notification

	// Now is the clock used for read timestamps
	Now func() time.Time
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:         make(map[uuid.UUID]*domain.User),
		categories:    make(map[uuid.UUID]*domain.Category),
		todos:         make(map[uuid.UUID]*domain.Todo),
		notifications: make(map[uuid.UUID]*domain.Notification),
		Now:           time.Now,
	}
}

func failure(errs map[string]error, op string) error {
	if errs == nil {
		return nil
	}
	return errs[op]
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyCategory(c *domain.Category) *domain.Category {
	cp := *c
	return &cp
}

func copyTodo(t *domain.Todo) *domain.Todo {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.CategoryID != nil {
		id := *t.CategoryID
		c.CategoryID = &id
	}
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}

func copyNotification(n *domain.Notification) *domain.Notification {
	c := *n
	if n.Message != nil {
		m := *n.Message
		c.Message = &m
	}
	if n.TodoID != nil {
		id := *n.TodoID
		c.TodoID = &id
	}
	if n.ReadAt != nil {
		r := *n.ReadAt
		c.ReadAt = &r
	}
	return &c
}

// newestFirst orders by created_at descending, then id, as the SQL stores do.
func newestFirst(createdAt func(i int) time.Time, id func(i int) uuid.UUID) func(i, j int) bool {
	return func(i, j int) bool {
		if !createdAt(i).Equal(createdAt(j)) {
			return createdAt(i).After(createdAt(j))
		}
		return id(i).String() < id(j).String()
	}
}
