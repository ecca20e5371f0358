package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCreatesRemindersForUpcomingRenewals(t *testing.T) {
	now := time.Now()
	mock := store.NewMockStore()
	mock.SubscriptionCol.ListFn = func(_ context.Context, _ string) ([]model.Subscription, error) {
		return []model.Subscription{
			{ID: "s1", UserID: "u1", ServiceName: "Netflix", Cost: decimal.NewFromInt(15), RenewalDate: now.Add(3 * 24 * time.Hour), IsActive: true},
			{ID: "s2", UserID: "u1", ServiceName: "Spotify", Cost: decimal.NewFromInt(10), RenewalDate: now.Add(30 * 24 * time.Hour), IsActive: true},
		}, nil
	}

	sched := New(mock, "u1")
	require.NoError(t, sched.Scan(context.Background()))

	require.Len(t, mock.NotificationCol.InsertCalls, 1)
	n := mock.NotificationCol.InsertCalls[0]
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, "renewal_reminder", n.Type)
	assert.Contains(t, n.Message, "Netflix")
}

func TestScanSkipsAlreadyAnnouncedRenewals(t *testing.T) {
	now := time.Now()
	sub := model.Subscription{
		ID: "s1", UserID: "u1", ServiceName: "Netflix",
		Cost: decimal.NewFromInt(15), RenewalDate: now.Add(3 * 24 * time.Hour), IsActive: true,
	}

	mock := store.NewMockStore()
	mock.SubscriptionCol.ListFn = func(_ context.Context, _ string) ([]model.Subscription, error) {
		return []model.Subscription{sub}, nil
	}
	mock.NotificationCol.ListFn = func(_ context.Context, _ string) ([]model.Notification, error) {
		return []model.Notification{
			{ID: "n1", UserID: "u1", Type: "renewal_reminder", Message: renewalMessage(sub)},
		}, nil
	}

	sched := New(mock, "u1")
	require.NoError(t, sched.Scan(context.Background()))
	assert.Empty(t, mock.NotificationCol.InsertCalls)
}

func TestScanIgnoresInactiveSubscriptions(t *testing.T) {
	now := time.Now()
	mock := store.NewMockStore()
	mock.SubscriptionCol.ListFn = func(_ context.Context, _ string) ([]model.Subscription, error) {
		return []model.Subscription{
			{ID: "s1", UserID: "u1", ServiceName: "Hulu", Cost: decimal.NewFromInt(8), RenewalDate: now.Add(2 * 24 * time.Hour), IsActive: false},
		}, nil
	}

	sched := New(mock, "u1")
	require.NoError(t, sched.Scan(context.Background()))
	assert.Empty(t, mock.NotificationCol.InsertCalls)
}
