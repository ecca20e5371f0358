package store

import (
	"context"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Per-entity insert statements and patch builders. Patch builders
// return the columns to set and their values; nil fields stay
// untouched. Server-assigned columns (id, timestamps, derived
// balances) never appear here.

// patchSet accumulates SET columns and their values.
type patchSet struct {
	columns []string
	args    []any
}

func (s *patchSet) add(column string, value any) {
	s.columns = append(s.columns, column)
	s.args = append(s.args, value)
}

func insertSubscription(ctx context.Context, pool *pgxpool.Pool, row model.Subscription) (model.Subscription, error) {
	return queryOne[model.Subscription](ctx, pool, `
		INSERT INTO subscriptions (user_id, service_name, cost, renewal_date, billing_cycle, category, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING to_jsonb(subscriptions)`,
		row.UserID, row.ServiceName, row.Cost, row.RenewalDate,
		string(row.BillingCycle), row.Category, row.Notes, row.IsActive)
}

func subscriptionPatch(p model.SubscriptionPatch) ([]string, []any) {
	var s patchSet
	if p.ServiceName != nil {
		s.add("service_name", *p.ServiceName)
	}
	if p.Cost != nil {
		s.add("cost", *p.Cost)
	}
	if p.RenewalDate != nil {
		s.add("renewal_date", *p.RenewalDate)
	}
	if p.BillingCycle != nil {
		s.add("billing_cycle", string(*p.BillingCycle))
	}
	if p.Category != nil {
		s.add("category", *p.Category)
	}
	if p.Notes != nil {
		s.add("notes", *p.Notes)
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	return s.columns, s.args
}

func insertDocument(ctx context.Context, pool *pgxpool.Pool, row model.Document) (model.Document, error) {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return queryOne[model.Document](ctx, pool, `
		INSERT INTO documents (user_id, title, category, file_url, file_name, file_size, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING to_jsonb(documents)`,
		row.UserID, row.Title, row.Category, row.FileURL, row.FileName, row.FileSize, tags)
}

func documentPatch(p model.DocumentPatch) ([]string, []any) {
	var s patchSet
	if p.Title != nil {
		s.add("title", *p.Title)
	}
	if p.Category != nil {
		s.add("category", *p.Category)
	}
	if p.FileURL != nil {
		s.add("file_url", *p.FileURL)
	}
	if p.FileName != nil {
		s.add("file_name", *p.FileName)
	}
	if p.FileSize != nil {
		s.add("file_size", *p.FileSize)
	}
	if p.Tags != nil {
		s.add("tags", *p.Tags)
	}
	return s.columns, s.args
}

func insertBudget(ctx context.Context, pool *pgxpool.Pool, row model.Budget) (model.Budget, error) {
	return queryOne[model.Budget](ctx, pool, `
		INSERT INTO budgets (user_id, category, monthly_limit, alert_threshold, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING to_jsonb(budgets)`,
		row.UserID, row.Category, row.MonthlyLimit, row.AlertThreshold, row.IsActive)
}

func budgetPatch(p model.BudgetPatch) ([]string, []any) {
	var s patchSet
	if p.Category != nil {
		s.add("category", *p.Category)
	}
	if p.MonthlyLimit != nil {
		s.add("monthly_limit", *p.MonthlyLimit)
	}
	if p.AlertThreshold != nil {
		s.add("alert_threshold", *p.AlertThreshold)
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	return s.columns, s.args
}

func insertGoal(ctx context.Context, pool *pgxpool.Pool, row model.Goal) (model.Goal, error) {
	return queryOne[model.Goal](ctx, pool, `
		INSERT INTO goals (user_id, name, target_amount, start_date, end_date, contribution_frequency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING to_jsonb(goals)`,
		row.UserID, row.Name, row.TargetAmount, row.StartDate, row.EndDate,
		string(row.ContributionFrequency), row.IsActive)
}

func goalPatch(p model.GoalPatch) ([]string, []any) {
	var s patchSet
	if p.Name != nil {
		s.add("name", *p.Name)
	}
	if p.TargetAmount != nil {
		s.add("target_amount", *p.TargetAmount)
	}
	if p.StartDate != nil {
		s.add("start_date", *p.StartDate)
	}
	switch {
	case p.EndDate != nil:
		s.add("end_date", *p.EndDate)
	case p.ClearEndDate:
		s.add("end_date", nil)
	}
	if p.ContributionFrequency != nil {
		s.add("contribution_frequency", string(*p.ContributionFrequency))
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	return s.columns, s.args
}

func insertTransaction(ctx context.Context, pool *pgxpool.Pool, row model.Transaction) (model.Transaction, error) {
	// A zero transaction date means "now"; the server assigns it.
	var txnDate any
	if !row.TransactionDate.IsZero() {
		txnDate = row.TransactionDate
	}
	return queryOne[model.Transaction](ctx, pool, `
		INSERT INTO transactions (user_id, amount, description, category, transaction_type, budget_id, goal_id, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
		RETURNING to_jsonb(transactions)`,
		row.UserID, row.Amount, row.Description, row.Category,
		string(row.Type), row.BudgetID, row.GoalID, txnDate)
}

func transactionPatch(p model.TransactionPatch) ([]string, []any) {
	var s patchSet
	if p.Amount != nil {
		s.add("amount", *p.Amount)
	}
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Category != nil {
		s.add("category", *p.Category)
	}
	if p.Type != nil {
		s.add("transaction_type", string(*p.Type))
	}
	if p.BudgetID != nil {
		s.add("budget_id", *p.BudgetID)
	}
	if p.GoalID != nil {
		s.add("goal_id", *p.GoalID)
	}
	return s.columns, s.args
}

func insertNotification(ctx context.Context, pool *pgxpool.Pool, row model.Notification) (model.Notification, error) {
	return queryOne[model.Notification](ctx, pool, `
		INSERT INTO notifications (user_id, type, message, is_read)
		VALUES ($1, $2, $3, $4)
		RETURNING to_jsonb(notifications)`,
		row.UserID, row.Type, row.Message, row.IsRead)
}

func notificationPatch(p model.NotificationPatch) ([]string, []any) {
	var s patchSet
	if p.IsRead != nil {
		s.add("is_read", *p.IsRead)
	}
	return s.columns, s.args
}
