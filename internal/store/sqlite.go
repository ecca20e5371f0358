package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements service.Store against a local database file.
// There is no server to push notifications, so the change feed is an
// in-process hub: every mutation publishes the same events the Postgres
// triggers would, and the sync engine cannot tell the backends apart.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	subscriptionHub *feedHub[model.Subscription]
	documentHub     *feedHub[model.Document]
	budgetHub       *feedHub[model.Budget]
	goalHub         *feedHub[model.Goal]
	transactionHub  *feedHub[model.Transaction]
	notificationHub *feedHub[model.Notification]
}

// NewSQLite creates a local store at the given path.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:              db,
		dbPath:          dbPath,
		subscriptionHub: newFeedHub[model.Subscription](),
		documentHub:     newFeedHub[model.Document](),
		budgetHub:       newFeedHub[model.Budget](),
		goalHub:         newFeedHub[model.Goal](),
		transactionHub:  newFeedHub[model.Transaction](),
		notificationHub: newFeedHub[model.Notification](),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// feedHub fans change events out to in-process subscribers.
type feedHub[T model.Entity] struct {
	subs map[int]chan service.ChangeEvent[T]
	next int
	mu   sync.Mutex
}

func newFeedHub[T model.Entity]() *feedHub[T] {
	return &feedHub[T]{subs: make(map[int]chan service.ChangeEvent[T])}
}

func (h *feedHub[T]) subscribe() (<-chan service.ChangeEvent[T], func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan service.ChangeEvent[T], feedBuffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (h *feedHub[T]) publish(ev service.ChangeEvent[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// A subscriber that stopped draining loses events rather
			// than blocking every other mutation.
			slog.Warn("Dropping feed event for slow subscriber")
		}
	}
}

// sqliteCollection implements service.Collection for one table, with
// the per-entity pieces supplied as closures. Mutations publish change
// events on the hub after the write commits.
type sqliteCollection[T model.Entity, P any] struct {
	db     *sql.DB
	hub    *feedHub[T]
	list   func(ctx context.Context, db *sql.DB, userID string) ([]T, error)
	get    func(ctx context.Context, q rowQuerier, id string) (T, error)
	insert func(ctx context.Context, db *sql.DB, row T) (string, error)
	patch  func(p P) ([]string, []any)
	table  string
	touch  bool
}

// rowQuerier abstracts *sql.DB and *sql.Tx for single-row reads.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *sqliteCollection[T, P]) List(ctx context.Context, userID string) ([]T, error) {
	out, err := c.list(ctx, c.db, userID)
	if err != nil {
		return nil, common.NewRemoteError("list", c.table, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *sqliteCollection[T, P]) Insert(ctx context.Context, row T) (T, error) {
	var zero T

	id, err := c.insert(ctx, c.db, row)
	if err != nil {
		return zero, common.NewRemoteError("insert", c.table, err)
	}

	created, err := c.get(ctx, c.db, id)
	if err != nil {
		return zero, common.NewRemoteError("insert", c.table, err)
	}

	c.hub.publish(service.InsertEvent(created))
	return created, nil
}

func (c *sqliteCollection[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T

	old, err := c.get(ctx, c.db, id)
	if err != nil {
		return zero, err
	}

	columns, args := c.patch(patch)
	if len(columns) > 0 {
		sets := make([]string, len(columns))
		for i, col := range columns {
			sets[i] = col + " = ?"
		}
		if c.touch {
			sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		}
		args = append(sqliteArgs(args), id)

		query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, c.table, strings.Join(sets, ", "))
		res, err := c.db.ExecContext(ctx, query, args...)
		if err != nil {
			return zero, common.NewRemoteError("update", c.table, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return zero, common.ErrNotFound
		}
	}

	updated, err := c.get(ctx, c.db, id)
	if err != nil {
		return zero, err
	}

	c.hub.publish(service.UpdateEvent(updated, old))
	return updated, nil
}

func (c *sqliteCollection[T, P]) Delete(ctx context.Context, id string) error {
	old, err := c.get(ctx, c.db, id)
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.table), id)
	if err != nil {
		return common.NewRemoteError("delete", c.table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}

	c.hub.publish(service.DeleteEvent(old))
	return nil
}

// Subscribe opens the in-process change feed for this table.
func (c *sqliteCollection[T, P]) Subscribe(_ context.Context) (<-chan service.ChangeEvent[T], func(), error) {
	events, cancel := c.hub.subscribe()
	return events, cancel, nil
}

// sqliteArgs converts values the sqlite driver cannot bind directly:
// string slices travel as JSON text, decimals as their string form.
func sqliteArgs(args []any) []any {
	for i, a := range args {
		switch v := a.(type) {
		case []string:
			buf, _ := json.Marshal(v)
			args[i] = string(buf)
		case decimal.Decimal:
			args[i] = v.String()
		}
	}
	return args
}
