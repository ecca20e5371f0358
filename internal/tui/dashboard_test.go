package tui

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/store"
	"github.com/Veraticus/pennywise/internal/sync"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedModel(t *testing.T, mock *store.MockStore) Model {
	t.Helper()
	tracker := sync.NewTracker(mock, "u1")
	require.NoError(t, tracker.LoadAll(context.Background()))
	return NewModel(tracker).refresh()
}

func TestViewShowsStatsAndRenewals(t *testing.T) {
	now := time.Now()
	mock := store.NewMockStore()
	mock.SubscriptionCol.ListFn = func(_ context.Context, _ string) ([]model.Subscription, error) {
		return []model.Subscription{
			{ID: "s1", UserID: "u1", ServiceName: "Netflix", Cost: decimal.NewFromInt(15),
				BillingCycle: model.CycleMonthly, RenewalDate: now.Add(2 * 24 * time.Hour), IsActive: true},
		}, nil
	}

	m := loadedModel(t, mock)
	out := m.View()

	assert.Contains(t, out, "Pennywise")
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "15.00")
}

func TestViewShowsEmptyRenewals(t *testing.T) {
	m := loadedModel(t, store.NewMockStore())
	assert.Contains(t, m.View(), "Nothing renews")
}

func TestQuitKey(t *testing.T) {
	m := loadedModel(t, store.NewMockStore())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Empty(t, updated.(Model).View())
}

func TestTickRefreshesSnapshot(t *testing.T) {
	mock := store.NewMockStore()
	tracker := sync.NewTracker(mock, "u1")
	require.NoError(t, tracker.LoadAll(context.Background()))
	m := NewModel(tracker).refresh()
	assert.Equal(t, 0, m.stats.ActiveSubscriptions)

	// A row lands via the change feed, then a tick re-reads the snapshot
	sub := model.Subscription{ID: "s1", UserID: "u1", ServiceName: "Hulu",
		Cost: decimal.NewFromInt(8), BillingCycle: model.CycleMonthly,
		RenewalDate: time.Now().Add(30 * 24 * time.Hour), IsActive: true}
	tracker.Subscriptions.Reconcile(service.InsertEvent(sub))

	updated, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, updated.(Model).stats.ActiveSubscriptions)
}
