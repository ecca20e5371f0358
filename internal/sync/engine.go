// Package sync implements the real-time synchronization engine: one
// generic implementation, instantiated per entity table, that loads a
// user's collection from the remote store, issues mutations, and
// reconciles change-feed events into local state.
package sync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

// Engine owns the in-memory collection of one entity table for one
// user. All mutations and feed reconciliation funnel through a single
// upsert-by-identity primitive, so an optimistic local apply and the
// later feed delivery for the same row converge instead of duplicating.
//
// Successful Update and Delete splice the server-confirmed result into
// the collection immediately. The original system waited for a refetch
// or the feed event and tolerated a staleness window; this engine does
// not. The feed event that follows is absorbed idempotently.
//
// Reconciliation applies events in arrival order and does not
// re-establish the canonical query ordering; Refresh does.
type Engine[T model.Entity, P any] struct {
	store  service.Collection[T, P]
	col    *Collection[T]
	err    error
	table  string
	userID string

	mu      sync.Mutex
	gen     uint64
	loading bool
	closed  bool
}

// New creates an engine for one table and one user. The store client is
// injected; nothing in the engine reaches for globals.
func New[T model.Entity, P any](table string, store service.Collection[T, P], userID string) *Engine[T, P] {
	return &Engine[T, P]{
		store:   store,
		col:     NewCollection[T](),
		table:   table,
		userID:  userID,
		loading: true,
	}
}

// UserID returns the user key this engine is scoped to.
func (e *Engine[T, P]) UserID() string { return e.userID }

// Table returns the entity table this engine syncs.
func (e *Engine[T, P]) Table() string { return e.table }

// Load fetches the user's rows in canonical order and replaces the
// collection wholesale. Without a user identity nothing is fetched. On
// failure the previous collection is retained and the error slot set;
// the loading flag clears on every path. Safe to call again at any time.
func (e *Engine[T, P]) Load(ctx context.Context) error {
	if e.userID == "" {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return common.ErrEngineClosed
	}
	gen := e.gen
	e.loading = true
	e.mu.Unlock()

	rows, err := e.store.List(ctx, e.userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		// Torn down while the request was in flight; drop the result.
		return common.ErrEngineClosed
	}
	e.loading = false
	if err != nil {
		e.err = err
		return err
	}
	e.col.ReplaceAll(rows)
	e.err = nil
	return nil
}

// Refresh is Load under the name callers use after mutations.
func (e *Engine[T, P]) Refresh(ctx context.Context) error {
	return e.Load(ctx)
}

// Create inserts a new row and applies the returned canonical row
// locally. The local apply is an upsert, so the feed's own INSERT for
// the same identity cannot produce a duplicate.
func (e *Engine[T, P]) Create(ctx context.Context, row T) (T, error) {
	var zero T
	if e.userID == "" {
		return zero, common.ErrNoUser
	}

	gen, err := e.snapshotGen()
	if err != nil {
		return zero, err
	}

	created, insertErr := e.store.Insert(ctx, row)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		return zero, common.ErrEngineClosed
	}
	if insertErr != nil {
		e.err = insertErr
		return zero, insertErr
	}
	e.col.Upsert(created)
	e.err = nil
	return created, nil
}

// Update sends a partial update and splices the returned row into the
// collection. Rows missing locally are appended; the caller saw the
// server accept the identity, so the row exists.
func (e *Engine[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T
	if e.userID == "" {
		return zero, common.ErrNoUser
	}

	gen, err := e.snapshotGen()
	if err != nil {
		return zero, err
	}

	updated, updateErr := e.store.Update(ctx, id, patch)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		return zero, common.ErrEngineClosed
	}
	if updateErr != nil {
		e.err = updateErr
		return zero, updateErr
	}
	e.col.Upsert(updated)
	e.err = nil
	return updated, nil
}

// Delete removes the row remotely, then locally. The feed's DELETE for
// the same identity finds nothing and is a no-op.
func (e *Engine[T, P]) Delete(ctx context.Context, id string) error {
	if e.userID == "" {
		return common.ErrNoUser
	}

	gen, err := e.snapshotGen()
	if err != nil {
		return err
	}

	deleteErr := e.store.Delete(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		return common.ErrEngineClosed
	}
	if deleteErr != nil {
		e.err = deleteErr
		return deleteErr
	}
	e.col.Remove(id)
	e.err = nil
	return nil
}

// Reconcile applies one change-feed event. Events owned by other users
// are ignored, as the feed is not pre-filtered. INSERT upserts by
// identity, UPDATE replaces in place (no insert-on-miss), DELETE
// removes and tolerates absence.
func (e *Engine[T, P]) Reconcile(ev service.ChangeEvent[T]) {
	if !ev.OwnedBy(e.userID) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	switch ev.Op() {
	case service.OpInsert:
		if row, ok := ev.New(); ok {
			e.col.Upsert(row)
		}
	case service.OpUpdate:
		if row, ok := ev.New(); ok {
			e.col.Replace(row)
		}
	case service.OpDelete:
		if row, ok := ev.Old(); ok {
			e.col.Remove(row.EntityID())
		}
	}
}

// Run subscribes to the table's change feed and reconciles every event
// until ctx ends, the feed closes, or the engine is closed. One
// subscription per engine instance at a time; callers wanting shared
// delivery share the engine, not the feed.
func (e *Engine[T, P]) Run(ctx context.Context) error {
	if e.userID == "" {
		return common.ErrNoUser
	}

	events, closeFeed, err := e.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer closeFeed()

	slog.Debug("Change feed open", "table", e.table)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if e.isClosed() {
				return common.ErrEngineClosed
			}
			e.Reconcile(ev)
		}
	}
}

// Close tears the engine down. In-flight request completions and feed
// events that arrive afterwards are dropped instead of mutating state.
func (e *Engine[T, P]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.gen++
}

// Snapshot returns a copy of the current collection in its current
// (arrival, not canonical) order.
func (e *Engine[T, P]) Snapshot() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.col.Items()
}

// Find returns the locally cached row with the given identity.
func (e *Engine[T, P]) Find(id string) (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.col.Find(id)
}

// Len returns the number of locally cached rows.
func (e *Engine[T, P]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.col.Len()
}

// Err returns the outstanding error, if any. The slot holds at most one
// error and clears on the next successful operation.
func (e *Engine[T, P]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Loading reports whether the initial load (or a refresh) is in flight.
func (e *Engine[T, P]) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine[T, P]) snapshotGen() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, common.ErrEngineClosed
	}
	return e.gen, nil
}

func (e *Engine[T, P]) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// upsertLocal applies a server-confirmed row produced outside the
// engine's own mutation paths, e.g. the goal balance returned by a
// contribution.
func (e *Engine[T, P]) upsertLocal(row T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.col.Upsert(row)
}
