// Package service defines the contracts between the sync layer and its
// collaborators: the remote collection store, its change feed, and blob
// storage for document files.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/shopspring/decimal"
)

// Collection is the per-table contract of the remote collection store.
// T is the row type, P the partial-update type. List applies the
// entity's canonical ordering and scoping filters and returns an empty
// slice (not an error) when nothing matches. Insert fills in
// server-assigned fields and returns the canonical row. Update and
// Delete fail with common.ErrNotFound for missing identities; a second
// delete of the same row is a NotFound, not a success.
type Collection[T model.Entity, P any] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Insert(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error

	// Subscribe opens the table's change feed. Events arrive in feed
	// order, which is not guaranteed to follow this client's own write
	// acknowledgements, and are not pre-filtered per user. The returned
	// close function releases the subscription; the channel is closed
	// afterwards.
	Subscribe(ctx context.Context) (<-chan ChangeEvent[T], func(), error)
}

// GoalCollection extends the goal table with the server-evaluated
// balance increment used by contributions. The addition is atomic on
// the server; two racing contributions both land.
type GoalCollection interface {
	Collection[model.Goal, model.GoalPatch]
	AddToCurrentAmount(ctx context.Context, id string, delta decimal.Decimal) (model.Goal, error)
}

// Store bundles one collection per entity table plus lifecycle.
type Store interface {
	Subscriptions() Collection[model.Subscription, model.SubscriptionPatch]
	Documents() Collection[model.Document, model.DocumentPatch]
	Budgets() Collection[model.Budget, model.BudgetPatch]
	Goals() GoalCollection
	Transactions() Collection[model.Transaction, model.TransactionPatch]
	Notifications() Collection[model.Notification, model.NotificationPatch]

	Profile(ctx context.Context, userID string) (*model.Profile, error)
	Migrate(ctx context.Context) error
	Close() error
}

// FileStore is the external blob storage documents are uploaded to.
// Upload returns a publicly resolvable URL for the stored object.
type FileStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, path string) error
}

// RetryOptions configures retry behavior for store operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
