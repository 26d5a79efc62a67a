package store

import (
	"fmt"
	"slices"
	"sync"

	"restaurant-ops/internal/domain"
)

// Collection is the canonical, ordered state of one entity collection.
// Readers only ever see copies of the backing slice.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	idOf  func(T) string
}

func NewCollection[T any](idOf func(T) string, initial []T) *Collection[T] {
	return &Collection[T]{items: slices.Clone(initial), idOf: idOf}
}

// Snapshot returns a shallow copy of the collection in iteration order.
func (c *Collection[T]) Snapshot() []T {
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

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Replace swaps in a new authoritative list.
func (c *Collection[T]) Replace(items []T) {
	cp := slices.Clone(items)
	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()
}

func (c *Collection[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, 0, len(c.items)+1)
	next = append(next, item)
	c.items = append(next, c.items...)
}

func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	c.items = append(next, item)
}

// Update patches the entry with the given id. fn receives a copy and runs
// under the write lock; returning an error discards the patch.
func (c *Collection[T]) Update(id string, fn func(*T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if c.idOf(it) != id {
			continue
		}
		patched := it
		if err := fn(&patched); err != nil {
			return err
		}
		// copy-on-write so earlier snapshots never observe the patch
		next := slices.Clone(c.items)
		next[i] = patched
		c.items = next
		return nil
	}
	return fmt.Errorf("%w: id %q", domain.ErrNotFound, id)
}

// Store holds every collection the dashboard works with.
type Store struct {
	Reservations *Collection[domain.Reservation]
	Orders       *Collection[domain.Order]
	Guests       *Collection[domain.CrmEntry]
	Documents    *Collection[domain.DocumentFile]
}

// Dataset is the initial content of a Store.
type Dataset struct {
	Reservations []domain.Reservation
	Orders       []domain.Order
	Guests       []domain.CrmEntry
	Documents    []domain.DocumentFile
}

func New(seed Dataset) *Store {
	return &Store{
		Reservations: NewCollection(func(r domain.Reservation) string { return r.ID }, seed.Reservations),
		Orders:       NewCollection(func(o domain.Order) string { return o.ID }, seed.Orders),
		Guests:       NewCollection(func(c domain.CrmEntry) string { return c.ID }, seed.Guests),
		Documents:    NewCollection(func(d domain.DocumentFile) string { return d.ID }, seed.Documents),
	}
}
