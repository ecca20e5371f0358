package sync

import "github.com/Veraticus/pennywise/internal/model"

// Collection is an ordered set of rows keyed by identity. It is not
// safe for concurrent use; the engine serializes access to it.
//
// Append and Upsert exist side by side deliberately. Append is the
// naive insert the original reconciliation performed, which duplicates
// a row when an optimistic append races feed delivery for the same
// identity. Every engine path uses Upsert instead, which closes that
// gap; Append remains for callers that have already de-duplicated.
type Collection[T model.Entity] struct {
	items []T
}

// NewCollection returns an empty collection.
func NewCollection[T model.Entity]() *Collection[T] {
	return &Collection[T]{}
}

// Len returns the number of rows.
func (c *Collection[T]) Len() int { return len(c.items) }

// Items returns a copy of the rows in their current order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// ReplaceAll swaps the entire contents for rows, preserving their order.
func (c *Collection[T]) ReplaceAll(rows []T) {
	c.items = make([]T, len(rows))
	copy(c.items, rows)
}

// Find returns the row with the given identity.
func (c *Collection[T]) Find(id string) (T, bool) {
	for _, item := range c.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Append adds row to the end without checking for an existing identity.
func (c *Collection[T]) Append(row T) {
	c.items = append(c.items, row)
}

// Upsert replaces the row with the same identity in place, or appends
// when absent. Returns true when an existing row was replaced.
func (c *Collection[T]) Upsert(row T) bool {
	for i, item := range c.items {
		if item.EntityID() == row.EntityID() {
			c.items[i] = row
			return true
		}
	}
	c.items = append(c.items, row)
	return false
}

// Replace swaps the row with the same identity in place. Rows not
// present are ignored; there is no insert-on-miss.
func (c *Collection[T]) Replace(row T) bool {
	for i, item := range c.items {
		if item.EntityID() == row.EntityID() {
			c.items[i] = row
			return true
		}
	}
	return false
}

// Remove deletes the row with the given identity. Removing an absent
// identity is a no-op.
func (c *Collection[T]) Remove(id string) bool {
	for i, item := range c.items {
		if item.EntityID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}
