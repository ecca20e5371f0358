package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Subscriptions returns the subscriptions collection.
func (s *SQLiteStore) Subscriptions() service.Collection[model.Subscription, model.SubscriptionPatch] {
	return &sqliteCollection[model.Subscription, model.SubscriptionPatch]{
		db:     s.db,
		hub:    s.subscriptionHub,
		table:  "subscriptions",
		list:   listSubscriptions,
		get:    getSubscription,
		insert: insertSubscriptionSQLite,
		patch:  subscriptionPatch,
		touch:  true,
	}
}

// Documents returns the documents collection.
func (s *SQLiteStore) Documents() service.Collection[model.Document, model.DocumentPatch] {
	return &sqliteCollection[model.Document, model.DocumentPatch]{
		db:     s.db,
		hub:    s.documentHub,
		table:  "documents",
		list:   listDocuments,
		get:    getDocument,
		insert: insertDocumentSQLite,
		patch:  documentPatch,
	}
}

// Budgets returns the budgets collection.
func (s *SQLiteStore) Budgets() service.Collection[model.Budget, model.BudgetPatch] {
	return &sqliteCollection[model.Budget, model.BudgetPatch]{
		db:     s.db,
		hub:    s.budgetHub,
		table:  "budgets",
		list:   listBudgets,
		get:    getBudget,
		insert: insertBudgetSQLite,
		patch:  budgetPatch,
		touch:  true,
	}
}

// Goals returns the goals collection.
func (s *SQLiteStore) Goals() service.GoalCollection {
	return &sqliteGoals{sqliteCollection[model.Goal, model.GoalPatch]{
		db:     s.db,
		hub:    s.goalHub,
		table:  "goals",
		list:   listGoals,
		get:    getGoal,
		insert: insertGoalSQLite,
		patch:  goalPatch,
		touch:  true,
	}}
}

// Transactions returns the transactions collection. Expense inserts
// that reference a budget also advance the budget's current spending,
// mirroring the Postgres trigger.
func (s *SQLiteStore) Transactions() service.Collection[model.Transaction, model.TransactionPatch] {
	return &sqliteCollection[model.Transaction, model.TransactionPatch]{
		db:     s.db,
		hub:    s.transactionHub,
		table:  "transactions",
		list:   listTransactions,
		get:    getTransaction,
		insert: s.insertTransactionSQLite,
		patch:  transactionPatch,
	}
}

// Notifications returns the notifications collection.
func (s *SQLiteStore) Notifications() service.Collection[model.Notification, model.NotificationPatch] {
	return &sqliteCollection[model.Notification, model.NotificationPatch]{
		db:     s.db,
		hub:    s.notificationHub,
		table:  "notifications",
		list:   listNotifications,
		get:    getNotification,
		insert: insertNotificationSQLite,
		patch:  notificationPatch,
	}
}

// Profile fetches the mirrored user record.
func (s *SQLiteStore) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, created_at, updated_at
		FROM profiles WHERE id = ?`, userID)

	var p model.Profile
	var fullName sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &fullName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.NewRemoteError("get", "profiles", err)
	}
	if fullName.Valid {
		p.FullName = &fullName.String
	}
	return &p, nil
}

// sqliteGoals adds the atomic balance increment.
type sqliteGoals struct {
	sqliteCollection[model.Goal, model.GoalPatch]
}

// AddToCurrentAmount adds delta to the goal balance inside the
// database, not from a cached read.
func (g *sqliteGoals) AddToCurrentAmount(ctx context.Context, id string, delta decimal.Decimal) (model.Goal, error) {
	old, err := g.get(ctx, g.db, id)
	if err != nil {
		return model.Goal{}, err
	}

	res, err := g.db.ExecContext(ctx, `
		UPDATE goals
		SET current_amount = current_amount + CAST(? AS REAL), updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, delta.String(), id)
	if err != nil {
		return model.Goal{}, common.NewRemoteError("increment", "goals", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Goal{}, common.ErrNotFound
	}

	updated, err := g.get(ctx, g.db, id)
	if err != nil {
		return model.Goal{}, err
	}

	g.hub.publish(service.UpdateEvent(updated, old))
	return updated, nil
}

const subscriptionColumns = `id, user_id, service_name, cost, renewal_date, billing_cycle, category, notes, is_active, created_at, updated_at`

func scanSubscription(r rowScanner) (model.Subscription, error) {
	var s model.Subscription
	var cycle string
	err := r.Scan(&s.ID, &s.UserID, &s.ServiceName, &s.Cost, &s.RenewalDate,
		&cycle, &s.Category, &s.Notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Subscription{}, err
	}
	s.BillingCycle = model.BillingCycle(cycle)
	return s, nil
}

func listSubscriptions(ctx context.Context, db *sql.DB, userID string) ([]model.Subscription, error) {
	return queryAll(ctx, db, scanSubscription,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY renewal_date ASC`, userID)
}

func getSubscription(ctx context.Context, q rowQuerier, id string) (model.Subscription, error) {
	return getOne(ctx, q, scanSubscription,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
}

func insertSubscriptionSQLite(ctx context.Context, db *sql.DB, row model.Subscription) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, service_name, cost, renewal_date, billing_cycle, category, notes, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, row.UserID, row.ServiceName, row.Cost.String(), row.RenewalDate,
		string(row.BillingCycle), row.Category, row.Notes, row.IsActive)
	return id, err
}

const documentColumns = `id, user_id, title, category, file_url, file_name, file_size, tags, upload_date`

func scanDocument(r rowScanner) (model.Document, error) {
	var d model.Document
	var tags string
	err := r.Scan(&d.ID, &d.UserID, &d.Title, &d.Category, &d.FileURL,
		&d.FileName, &d.FileSize, &tags, &d.UploadDate)
	if err != nil {
		return model.Document{}, err
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return model.Document{}, fmt.Errorf("failed to decode tags: %w", err)
	}
	return d, nil
}

func listDocuments(ctx context.Context, db *sql.DB, userID string) ([]model.Document, error) {
	return queryAll(ctx, db, scanDocument,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = ? ORDER BY upload_date DESC`, userID)
}

func getDocument(ctx context.Context, q rowQuerier, id string) (model.Document, error) {
	return getOne(ctx, q, scanDocument,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
}

func insertDocumentSQLite(ctx context.Context, db *sql.DB, row model.Document) (string, error) {
	id := uuid.NewString()
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	buf, _ := json.Marshal(tags)
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, title, category, file_url, file_name, file_size, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, row.UserID, row.Title, row.Category, row.FileURL, row.FileName, row.FileSize, string(buf))
	return id, err
}

const budgetColumns = `id, user_id, category, monthly_limit, current_spending, alert_threshold, is_active, created_at, updated_at`

func scanBudget(r rowScanner) (model.Budget, error) {
	var b model.Budget
	err := r.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit, &b.CurrentSpending,
		&b.AlertThreshold, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Budget{}, err
	}
	return b, nil
}

func listBudgets(ctx context.Context, db *sql.DB, userID string) ([]model.Budget, error) {
	return queryAll(ctx, db, scanBudget,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND is_active = 1 ORDER BY category ASC`, userID)
}

func getBudget(ctx context.Context, q rowQuerier, id string) (model.Budget, error) {
	return getOne(ctx, q, scanBudget,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
}

func insertBudgetSQLite(ctx context.Context, db *sql.DB, row model.Budget) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, monthly_limit, alert_threshold, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, row.UserID, row.Category, row.MonthlyLimit.String(), row.AlertThreshold, row.IsActive)
	return id, err
}

const goalColumns = `id, user_id, name, target_amount, current_amount, start_date, end_date, contribution_frequency, is_active, created_at, updated_at`

func scanGoal(r rowScanner) (model.Goal, error) {
	var g model.Goal
	var endDate sql.NullTime
	var freq string
	err := r.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
		&g.StartDate, &endDate, &freq, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.Goal{}, err
	}
	if endDate.Valid {
		g.EndDate = &endDate.Time
	}
	g.ContributionFrequency = model.ContributionFrequency(freq)
	return g, nil
}

func listGoals(ctx context.Context, db *sql.DB, userID string) ([]model.Goal, error) {
	return queryAll(ctx, db, scanGoal,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC`, userID)
}

func getGoal(ctx context.Context, q rowQuerier, id string) (model.Goal, error) {
	return getOne(ctx, q, scanGoal,
		`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
}

func insertGoalSQLite(ctx context.Context, db *sql.DB, row model.Goal) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, start_date, end_date, contribution_frequency, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, row.UserID, row.Name, row.TargetAmount.String(), row.StartDate, row.EndDate,
		string(row.ContributionFrequency), row.IsActive)
	return id, err
}

const transactionColumns = `id, user_id, amount, description, category, transaction_type, budget_id, goal_id, transaction_date, created_at`

func scanTransaction(r rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var txType string
	var budgetID, goalID sql.NullString
	err := r.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.Category,
		&txType, &budgetID, &goalID, &t.TransactionDate, &t.CreatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Type = model.TransactionType(txType)
	if budgetID.Valid {
		t.BudgetID = &budgetID.String
	}
	if goalID.Valid {
		t.GoalID = &goalID.String
	}
	return t, nil
}

func listTransactions(ctx context.Context, db *sql.DB, userID string) ([]model.Transaction, error) {
	return queryAll(ctx, db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY transaction_date DESC`, userID)
}

func getTransaction(ctx context.Context, q rowQuerier, id string) (model.Transaction, error) {
	return getOne(ctx, q, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
}

// insertTransactionSQLite also applies the expense side-effect the
// Postgres trigger performs, inside one database transaction, and
// publishes the budget's UPDATE event after commit.
func (s *SQLiteStore) insertTransactionSQLite(ctx context.Context, db *sql.DB, row model.Transaction) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	// A zero transaction date means "now"; the database assigns it.
	var txnDate any
	if !row.TransactionDate.IsZero() {
		txnDate = row.TransactionDate
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category, transaction_type, budget_id, goal_id, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		id, row.UserID, row.Amount.String(), row.Description, row.Category,
		string(row.Type), row.BudgetID, row.GoalID, txnDate); err != nil {
		return "", err
	}

	var oldBudget model.Budget
	applyExpense := row.Type == model.TypeExpense && row.BudgetID != nil
	if applyExpense {
		oldBudget, err = getBudget(ctx, tx, *row.BudgetID)
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE budgets
			SET current_spending = current_spending + CAST(? AS REAL), updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, row.Amount.String(), *row.BudgetID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	if applyExpense {
		if newBudget, err := getBudget(ctx, s.db, *row.BudgetID); err == nil {
			s.budgetHub.publish(service.UpdateEvent(newBudget, oldBudget))
		}
	}
	return id, nil
}

const notificationColumns = `id, user_id, type, message, is_read, created_at`

func scanNotification(r rowScanner) (model.Notification, error) {
	var n model.Notification
	err := r.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

func listNotifications(ctx context.Context, db *sql.DB, userID string) ([]model.Notification, error) {
	return queryAll(ctx, db, scanNotification,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func getNotification(ctx context.Context, q rowQuerier, id string) (model.Notification, error) {
	return getOne(ctx, q, scanNotification,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
}

func insertNotificationSQLite(ctx context.Context, db *sql.DB, row model.Notification) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, message, is_read)
		VALUES (?, ?, ?, ?, ?)`,
		id, row.UserID, row.Type, row.Message, row.IsRead)
	return id, err
}

// queryAll runs a list query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// getOne runs a single-row query, mapping sql.ErrNoRows to NotFound.
func getOne[T any](ctx context.Context, q rowQuerier, scan func(rowScanner) (T, error), query string, args ...any) (T, error) {
	row, err := scan(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, common.ErrNotFound
		}
		return zero, err
	}
	return row, nil
}
