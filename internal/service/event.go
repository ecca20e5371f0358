package service

import "github.com/Veraticus/pennywise/internal/model"

// EventOp tags a change-feed event.
type EventOp string

const (
	// OpInsert carries the new row only.
	OpInsert EventOp = "INSERT"
	// OpUpdate carries both the new and the old row.
	OpUpdate EventOp = "UPDATE"
	// OpDelete carries the old row only.
	OpDelete EventOp = "DELETE"
)

// ChangeEvent is one change-feed delivery for a table. The zero value
// is invalid; construct events through the typed constructors so each
// op carries exactly the rows valid for it.
type ChangeEvent[T model.Entity] struct {
	op     EventOp
	newRow *T
	oldRow *T
}

// InsertEvent builds an INSERT event carrying the inserted row.
func InsertEvent[T model.Entity](row T) ChangeEvent[T] {
	return ChangeEvent[T]{op: OpInsert, newRow: &row}
}

// UpdateEvent builds an UPDATE event carrying the row before and after.
func UpdateEvent[T model.Entity](newRow, oldRow T) ChangeEvent[T] {
	return ChangeEvent[T]{op: OpUpdate, newRow: &newRow, oldRow: &oldRow}
}

// DeleteEvent builds a DELETE event carrying the removed row.
func DeleteEvent[T model.Entity](row T) ChangeEvent[T] {
	return ChangeEvent[T]{op: OpDelete, oldRow: &row}
}

// Op returns the event's tag.
func (e ChangeEvent[T]) Op() EventOp { return e.op }

// New returns the post-image row for INSERT and UPDATE events.
func (e ChangeEvent[T]) New() (T, bool) {
	if e.newRow == nil {
		var zero T
		return zero, false
	}
	return *e.newRow, true
}

// Old returns the pre-image row for UPDATE and DELETE events.
func (e ChangeEvent[T]) Old() (T, bool) {
	if e.oldRow == nil {
		var zero T
		return zero, false
	}
	return *e.oldRow, true
}

// OwnedBy reports whether either side of the event belongs to userID.
// The feed is not pre-filtered per user, so every consumer applies this
// before reconciling.
func (e ChangeEvent[T]) OwnedBy(userID string) bool {
	if e.newRow != nil && (*e.newRow).OwnerID() == userID {
		return true
	}
	if e.oldRow != nil && (*e.oldRow).OwnerID() == userID {
		return true
	}
	return false
}
