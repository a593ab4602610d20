package platform

import (
	"context"
	"sync"

	"reformhub/api/internal/kvstore"
)

// Collection owns one named collection of records. It loads the collection
// from the store on construction (falling back to a seed dataset the first
// time the platform runs against an empty medium), mutates an in-memory
// copy, and rewrites the entire collection on every change. Last writer
// wins; there is no partial update.
type Collection[T Record] struct {
	mu    sync.RWMutex
	store *kvstore.Store
	name  string
	items []T
}

func NewCollection[T Record](ctx context.Context, store *kvstore.Store, name string, seed []T) *Collection[T] {
	items := kvstore.Get(ctx, store, name, seed)
	return &Collection[T]{store: store, name: name, items: items}
}

// Items returns a copy of the collection in stored order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Append adds item at the end (chronological collections) and persists.
func (c *Collection[T]) Append(ctx context.Context, item T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	c.persist(ctx)
	return item
}

// Prepend adds item at the front (most-recent-first feeds) and persists.
func (c *Collection[T]) Prepend(ctx context.Context, item T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T{item}, c.items...)
	c.persist(ctx)
	return item
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns all records matching pred, in stored order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Mutate locates the record with the given id, applies fn to it in place,
// and persists the collection. It is a silent no-op when id is absent.
func (c *Collection[T]) Mutate(ctx context.Context, id ID, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].RecordID() == id {
			fn(&c.items[i])
			c.persist(ctx)
			return true
		}
	}
	return false
}

// persist rewrites the full collection. Callers hold the write lock.
func (c *Collection[T]) persist(ctx context.Context) {
	c.store.Set(ctx, c.name, c.items)
}
