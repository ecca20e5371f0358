package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// nextEvent receives one change event or fails the test. Mutations
// publish before returning, so the event is already buffered.
func nextEvent[T model.Entity](t *testing.T, events <-chan service.ChangeEvent[T]) service.ChangeEvent[T] {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a feed event")
		return service.ChangeEvent[T]{}
	}
}

func testSubscription(user, name string, renewal time.Time) model.Subscription {
	return model.Subscription{
		UserID:       user,
		ServiceName:  name,
		Cost:         decimal.RequireFromString("15.25"),
		RenewalDate:  renewal,
		BillingCycle: model.CycleMonthly,
		Category:     "Entertainment",
		IsActive:     true,
	}
}

func TestSQLiteListEmptyResultIsEmptySlice(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.Subscriptions().List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLiteSubscriptionLifecyclePublishesEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subs := s.Subscriptions()

	events, cancel, err := subs.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	created, err := subs.Insert(ctx, testSubscription("u1", "Netflix", time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "server assigns the identity")
	assert.Equal(t, "u1", created.UserID)

	ev := nextEvent(t, events)
	assert.Equal(t, service.OpInsert, ev.Op())
	row, ok := ev.New()
	require.True(t, ok)
	assert.Equal(t, created.ID, row.ID)
	assert.True(t, ev.OwnedBy("u1"))

	name := "Netflix 4K"
	cost := decimal.RequireFromString("19.25")
	updated, err := subs.Update(ctx, created.ID, model.SubscriptionPatch{ServiceName: &name, Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, "Netflix 4K", updated.ServiceName)
	assert.True(t, cost.Equal(updated.Cost), "cost survives the round trip")

	ev = nextEvent(t, events)
	assert.Equal(t, service.OpUpdate, ev.Op())
	newRow, ok := ev.New()
	require.True(t, ok)
	assert.Equal(t, "Netflix 4K", newRow.ServiceName)
	oldRow, ok := ev.Old()
	require.True(t, ok)
	assert.Equal(t, "Netflix", oldRow.ServiceName)

	require.NoError(t, subs.Delete(ctx, created.ID))

	ev = nextEvent(t, events)
	assert.Equal(t, service.OpDelete, ev.Op())
	gone, ok := ev.Old()
	require.True(t, ok)
	assert.Equal(t, created.ID, gone.ID)

	// The row is gone; deleting it again is NotFound, not a silent
	// success.
	assert.ErrorIs(t, subs.Delete(ctx, created.ID), common.ErrNotFound)
}

func TestSQLiteUpdateMissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t)

	name := "Ghost"
	_, err := s.Subscriptions().Update(context.Background(), "no-such-id", model.SubscriptionPatch{ServiceName: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteDeleteMissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Subscriptions().Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteListCanonicalOrderAndUserScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subs := s.Subscriptions()

	// Inserted out of renewal order, plus another user's row.
	_, err := subs.Insert(ctx, testSubscription("u1", "Later", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = subs.Insert(ctx, testSubscription("u1", "Sooner", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = subs.Insert(ctx, testSubscription("u2", "Other", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	rows, err := subs.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sooner", rows[0].ServiceName)
	assert.Equal(t, "Later", rows[1].ServiceName)
}

func TestSQLiteDocumentTagsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docs := s.Documents()

	created, err := docs.Insert(ctx, model.Document{
		UserID:   "u1",
		Title:    "Lease",
		FileURL:  "https://files.example.com/lease.pdf",
		FileName: "lease.pdf",
		FileSize: 2048,
		Tags:     []string{"housing", "2026"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"housing", "2026"}, created.Tags)

	untagged, err := docs.Insert(ctx, model.Document{
		UserID:   "u1",
		Title:    "Receipt",
		FileURL:  "https://files.example.com/receipt.pdf",
		FileName: "receipt.pdf",
	})
	require.NoError(t, err)
	assert.NotNil(t, untagged.Tags)
	assert.Empty(t, untagged.Tags)
}

func TestSQLiteAddToCurrentAmountAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	goals := s.Goals()

	created, err := goals.Insert(ctx, model.Goal{
		UserID:                "u1",
		Name:                  "Emergency fund",
		TargetAmount:          decimal.RequireFromString("1000"),
		StartDate:             time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ContributionFrequency: model.ContributeMonthly,
		IsActive:              true,
	})
	require.NoError(t, err)
	assert.True(t, created.CurrentAmount.IsZero())

	events, cancel, err := goals.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	after, err := goals.AddToCurrentAmount(ctx, created.ID, decimal.RequireFromString("25.5"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.5").Equal(after.CurrentAmount))

	after, err = goals.AddToCurrentAmount(ctx, created.ID, decimal.RequireFromString("10"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.5").Equal(after.CurrentAmount), "increments accumulate in the database")

	ev := nextEvent(t, events)
	assert.Equal(t, service.OpUpdate, ev.Op())
	row, ok := ev.New()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("25.5").Equal(row.CurrentAmount))

	_, err = goals.AddToCurrentAmount(ctx, "no-such-goal", decimal.RequireFromString("5"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteExpenseAdvancesBudgetSpending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	budget, err := s.Budgets().Insert(ctx, model.Budget{
		UserID:         "u1",
		Category:       "Groceries",
		MonthlyLimit:   decimal.RequireFromString("400"),
		AlertThreshold: 80,
		IsActive:       true,
	})
	require.NoError(t, err)

	budgetEvents, cancel, err := s.Budgets().Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	txn, err := s.Transactions().Insert(ctx, model.Transaction{
		UserID:   "u1",
		Amount:   decimal.RequireFromString("60.25"),
		Category: "Groceries",
		Type:     model.TypeExpense,
		BudgetID: &budget.ID,
	})
	require.NoError(t, err)
	assert.False(t, txn.TransactionDate.IsZero(), "server assigns the date when none is given")

	after, err := s.Budgets().List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, decimal.RequireFromString("60.25").Equal(after[0].CurrentSpending))

	// The budget moved as a side effect, so its feed carries an UPDATE.
	ev := nextEvent(t, budgetEvents)
	assert.Equal(t, service.OpUpdate, ev.Op())
	newRow, ok := ev.New()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("60.25").Equal(newRow.CurrentSpending))
	oldRow, ok := ev.Old()
	require.True(t, ok)
	assert.True(t, oldRow.CurrentSpending.IsZero())
}

func TestSQLiteIncomeLeavesBudgetsAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	budget, err := s.Budgets().Insert(ctx, model.Budget{
		UserID:         "u1",
		Category:       "Groceries",
		MonthlyLimit:   decimal.RequireFromString("400"),
		AlertThreshold: 80,
		IsActive:       true,
	})
	require.NoError(t, err)

	_, err = s.Transactions().Insert(ctx, model.Transaction{
		UserID: "u1",
		Amount: decimal.RequireFromString("2500"),
		Type:   model.TypeIncome,
	})
	require.NoError(t, err)

	after, err := s.Budgets().List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, after[0].CurrentSpending.IsZero())
	assert.Equal(t, budget.ID, after[0].ID)
}

func TestSQLiteTransactionKeepsSuppliedDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	when := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	txn, err := s.Transactions().Insert(ctx, model.Transaction{
		UserID:          "u1",
		Amount:          decimal.RequireFromString("12.25"),
		Type:            model.TypeExpense,
		TransactionDate: when,
	})
	require.NoError(t, err)
	assert.True(t, when.Equal(txn.TransactionDate), "a historical import keeps its own date")
}

func TestSQLiteFeedCancelStopsDelivery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subs := s.Subscriptions()

	events, cancel, err := subs.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	_, err = subs.Insert(ctx, testSubscription("u1", "Hulu", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, open := <-events
	assert.False(t, open, "a cancelled subscription's channel closes")
}
