// Package store implements the remote collection store contract over
// Postgres (hosted, with a LISTEN/NOTIFY change feed) and SQLite (local
// single-user mode, with an in-process feed), plus a mock for tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements service.Store against a hosted Postgres
// database. Rows travel as JSON (to_jsonb on the way out, the same
// shape the notify triggers emit), so the query path and the change
// feed share one codec.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a store to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL", common.ErrMissingConfig)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Subscriptions returns the subscriptions collection.
func (s *PostgresStore) Subscriptions() service.Collection[model.Subscription, model.SubscriptionPatch] {
	return &pgCollection[model.Subscription, model.SubscriptionPatch]{
		pool:    s.pool,
		table:   "subscriptions",
		listSQL: `SELECT to_jsonb(subscriptions) FROM subscriptions WHERE user_id = $1 ORDER BY renewal_date ASC`,
		insert:  insertSubscription,
		patch:   subscriptionPatch,
		touch:   true,
	}
}

// Documents returns the documents collection.
func (s *PostgresStore) Documents() service.Collection[model.Document, model.DocumentPatch] {
	return &pgCollection[model.Document, model.DocumentPatch]{
		pool:    s.pool,
		table:   "documents",
		listSQL: `SELECT to_jsonb(documents) FROM documents WHERE user_id = $1 ORDER BY upload_date DESC`,
		insert:  insertDocument,
		patch:   documentPatch,
	}
}

// Budgets returns the budgets collection. Listing is scoped to active
// budgets, ordered by category.
func (s *PostgresStore) Budgets() service.Collection[model.Budget, model.BudgetPatch] {
	return &pgCollection[model.Budget, model.BudgetPatch]{
		pool:    s.pool,
		table:   "budgets",
		listSQL: `SELECT to_jsonb(budgets) FROM budgets WHERE user_id = $1 AND is_active = true ORDER BY category ASC`,
		insert:  insertBudget,
		patch:   budgetPatch,
		touch:   true,
	}
}

// Goals returns the goals collection. Listing is scoped to active
// goals, newest first.
func (s *PostgresStore) Goals() service.GoalCollection {
	return &pgGoals{pgCollection[model.Goal, model.GoalPatch]{
		pool:    s.pool,
		table:   "goals",
		listSQL: `SELECT to_jsonb(goals) FROM goals WHERE user_id = $1 AND is_active = true ORDER BY created_at DESC`,
		insert:  insertGoal,
		patch:   goalPatch,
		touch:   true,
	}}
}

// Transactions returns the transactions collection, newest first.
func (s *PostgresStore) Transactions() service.Collection[model.Transaction, model.TransactionPatch] {
	return &pgCollection[model.Transaction, model.TransactionPatch]{
		pool:    s.pool,
		table:   "transactions",
		listSQL: `SELECT to_jsonb(transactions) FROM transactions WHERE user_id = $1 ORDER BY transaction_date DESC`,
		insert:  insertTransaction,
		patch:   transactionPatch,
	}
}

// Notifications returns the notifications collection, newest first.
func (s *PostgresStore) Notifications() service.Collection[model.Notification, model.NotificationPatch] {
	return &pgCollection[model.Notification, model.NotificationPatch]{
		pool:    s.pool,
		table:   "notifications",
		listSQL: `SELECT to_jsonb(notifications) FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		insert:  insertNotification,
		patch:   notificationPatch,
	}
}

// Profile fetches the mirrored user record.
func (s *PostgresStore) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	row, err := queryOne[model.Profile](ctx, s.pool,
		`SELECT to_jsonb(profiles) FROM profiles WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.NewRemoteError("get", "profiles", err)
	}
	return &row, nil
}

// pgCollection implements service.Collection for one table. The
// per-entity pieces are the insert statement and the patch builder;
// everything else is shared.
type pgCollection[T model.Entity, P any] struct {
	pool    *pgxpool.Pool
	insert  func(ctx context.Context, pool *pgxpool.Pool, row T) (T, error)
	patch   func(p P) ([]string, []any)
	table   string
	listSQL string
	touch   bool // table carries updated_at
}

// List returns the user's rows in the table's canonical order. No
// matches is an empty slice, not an error. The query is idempotent, so
// transient transport failures are retried with backoff.
func (c *pgCollection[T, P]) List(ctx context.Context, userID string) ([]T, error) {
	var out []T
	err := common.WithRetry(ctx, func() error {
		rows, err := c.pool.Query(ctx, c.listSQL, userID)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		out, err = collectRows[T](rows)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		return nil
	}, service.RetryOptions{})
	if err != nil {
		return nil, common.NewRemoteError("list", c.table, err)
	}
	return out, nil
}

// Insert writes one row and returns it with server-assigned fields
// populated.
func (c *pgCollection[T, P]) Insert(ctx context.Context, row T) (T, error) {
	created, err := c.insert(ctx, c.pool, row)
	if err != nil {
		var zero T
		return zero, common.NewRemoteError("insert", c.table, err)
	}
	return created, nil
}

// Update applies a partial field set and returns the full updated row.
// A missing identity is common.ErrNotFound.
func (c *pgCollection[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T

	columns, args := c.patch(patch)
	if len(columns) == 0 {
		// Nothing to change; return the current row.
		row, err := queryOne[T](ctx, c.pool,
			fmt.Sprintf(`SELECT to_jsonb(%s) FROM %s WHERE id = $1`, c.table, c.table), id)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return zero, common.NewRemoteError("update", c.table, err)
		}
		return row, err
	}

	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	if c.touch {
		sets = append(sets, "updated_at = now()")
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING to_jsonb(%s)`,
		c.table, strings.Join(sets, ", "), len(args)+1, c.table)
	args = append(args, id)

	row, err := queryOne[T](ctx, c.pool, query, args...)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return zero, common.ErrNotFound
		}
		return zero, common.NewRemoteError("update", c.table, err)
	}
	return row, nil
}

// Delete removes the row. Deleting an absent (or already deleted)
// identity is common.ErrNotFound, not a silent success.
func (c *pgCollection[T, P]) Delete(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table), id)
	if err != nil {
		return common.NewRemoteError("delete", c.table, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// pgGoals adds the server-evaluated balance increment to the goals
// collection.
type pgGoals struct {
	pgCollection[model.Goal, model.GoalPatch]
}

// AddToCurrentAmount atomically adds delta to the goal's balance on the
// server and returns the updated row. Concurrent contributions both
// land; there is no read-modify-write on a cached value.
func (g *pgGoals) AddToCurrentAmount(ctx context.Context, id string, delta decimal.Decimal) (model.Goal, error) {
	row, err := queryOne[model.Goal](ctx, g.pool, `
		UPDATE goals
		SET current_amount = current_amount + $2::numeric, updated_at = now()
		WHERE id = $1
		RETURNING to_jsonb(goals)`, id, delta)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.Goal{}, common.ErrNotFound
		}
		return model.Goal{}, common.NewRemoteError("increment", "goals", err)
	}
	return row, nil
}

// queryOne runs a single-row query whose one column is a JSON-encoded
// row and decodes it. pgx.ErrNoRows maps to common.ErrNotFound.
func queryOne[T any](ctx context.Context, pool *pgxpool.Pool, query string, args ...any) (T, error) {
	var zero T
	var buf []byte
	if err := pool.QueryRow(ctx, query, args...).Scan(&buf); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, common.ErrNotFound
		}
		return zero, err
	}
	var row T
	if err := json.Unmarshal(buf, &row); err != nil {
		return zero, fmt.Errorf("failed to decode row: %w", err)
	}
	return row, nil
}

// collectRows drains a JSON-per-row result set.
func collectRows[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var buf []byte
		if err := rows.Scan(&buf); err != nil {
			return nil, err
		}
		var row T
		if err := json.Unmarshal(buf, &row); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
