package sync

import (
	"context"
	"errors"
	gosync "sync"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

// Tracker bundles one engine per entity table for a single user.
type Tracker struct {
	Subscriptions *Engine[model.Subscription, model.SubscriptionPatch]
	Documents     *Engine[model.Document, model.DocumentPatch]
	Budgets       *Engine[model.Budget, model.BudgetPatch]
	Goals         *Goals
	Transactions  *Engine[model.Transaction, model.TransactionPatch]
	Notifications *Engine[model.Notification, model.NotificationPatch]
}

// NewTracker wires every engine against the given store for one user.
func NewTracker(store service.Store, userID string) *Tracker {
	transactions := New[model.Transaction, model.TransactionPatch]("transactions", store.Transactions(), userID)
	return &Tracker{
		Subscriptions: New[model.Subscription, model.SubscriptionPatch]("subscriptions", store.Subscriptions(), userID),
		Documents:     New[model.Document, model.DocumentPatch]("documents", store.Documents(), userID),
		Budgets:       New[model.Budget, model.BudgetPatch]("budgets", store.Budgets(), userID),
		Goals:         NewGoals(store.Goals(), transactions, userID),
		Transactions:  transactions,
		Notifications: New[model.Notification, model.NotificationPatch]("notifications", store.Notifications(), userID),
	}
}

// LoadAll performs the initial load for every collection, returning the
// first error encountered. Collections that loaded stay loaded.
func (t *Tracker) LoadAll(ctx context.Context) error {
	if err := t.Subscriptions.Load(ctx); err != nil {
		return err
	}
	if err := t.Documents.Load(ctx); err != nil {
		return err
	}
	if err := t.Budgets.Load(ctx); err != nil {
		return err
	}
	if err := t.Goals.Load(ctx); err != nil {
		return err
	}
	if err := t.Transactions.Load(ctx); err != nil {
		return err
	}
	return t.Notifications.Load(ctx)
}

// RunAll opens every change feed and reconciles until ctx ends. It
// blocks; run it in a goroutine when the caller has other work.
func (t *Tracker) RunAll(ctx context.Context) error {
	var wg gosync.WaitGroup
	errs := make([]error, 6)

	run := func(i int, f func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs[i] = err
			}
		}()
	}

	run(0, t.Subscriptions.Run)
	run(1, t.Documents.Run)
	run(2, t.Budgets.Run)
	run(3, t.Goals.Run)
	run(4, t.Transactions.Run)
	run(5, t.Notifications.Run)

	wg.Wait()
	return errors.Join(errs...)
}

// Close tears down every engine; late results and events are dropped.
func (t *Tracker) Close() {
	t.Subscriptions.Close()
	t.Documents.Close()
	t.Budgets.Close()
	t.Goals.Close()
	t.Transactions.Close()
	t.Notifications.Close()
}
