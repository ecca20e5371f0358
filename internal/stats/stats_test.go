package stats

import (
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(name string, cost int64, cycle model.BillingCycle, active bool) model.Subscription {
	return model.Subscription{
		ID: name, UserID: "u1", ServiceName: name,
		Cost: decimal.NewFromInt(cost), BillingCycle: cycle, IsActive: active,
	}
}

func TestMonthlySpendNormalizesCycles(t *testing.T) {
	subs := []model.Subscription{
		sub("monthly", 10, model.CycleMonthly, true),
		sub("yearly", 120, model.CycleYearly, true),   // 10/month
		sub("quarterly", 30, model.CycleQuarterly, true), // 10/month
		sub("cancelled", 500, model.CycleMonthly, false),
	}

	total := MonthlySpend(subs)
	assert.True(t, total.Equal(decimal.NewFromInt(30)), "got %s", total)
}

func TestMonthlySpendWeeklyUsesAverageWeeks(t *testing.T) {
	subs := []model.Subscription{sub("weekly", 10, model.CycleWeekly, true)}

	// 10 * 4.33
	want := decimal.NewFromFloat(43.3)
	assert.True(t, MonthlySpend(subs).Equal(want))
}

func TestMonthlySpendEmpty(t *testing.T) {
	assert.True(t, MonthlySpend(nil).IsZero())
}

func TestUpcomingRenewalsWindowIsExclusive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	at := func(d time.Duration) model.Subscription {
		s := sub("s", 10, model.CycleMonthly, true)
		s.RenewalDate = now.Add(d)
		return s
	}

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"renewal now is already due", 0, false},
		{"one second ahead", time.Second, true},
		{"six days ahead", 6 * 24 * time.Hour, true},
		{"exactly seven days is outside", 7 * 24 * time.Hour, false},
		{"past renewal", -time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpcomingRenewals([]model.Subscription{at(tt.offset)}, now)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestUpcomingRenewalsSkipsInactive(t *testing.T) {
	now := time.Now()
	s := sub("s", 10, model.CycleMonthly, false)
	s.RenewalDate = now.Add(24 * time.Hour)

	assert.Empty(t, UpcomingRenewals([]model.Subscription{s}, now))
}

func TestGoalProgressMeanIsUnclamped(t *testing.T) {
	goals := []model.Goal{
		{ID: "g1", UserID: "u1", CurrentAmount: decimal.NewFromInt(50), TargetAmount: decimal.NewFromInt(100), IsActive: true},
		{ID: "g2", UserID: "u1", CurrentAmount: decimal.NewFromInt(150), TargetAmount: decimal.NewFromInt(100), IsActive: true},
	}

	// (0.5 + 1.5) / 2 * 100
	assert.InDelta(t, 100.0, GoalProgress(goals), 0.001)
}

func TestGoalProgressNoGoals(t *testing.T) {
	assert.Zero(t, GoalProgress(nil))

	inactive := []model.Goal{
		{ID: "g1", UserID: "u1", CurrentAmount: decimal.NewFromInt(50), TargetAmount: decimal.NewFromInt(100)},
	}
	assert.Zero(t, GoalProgress(inactive))
}

func TestBudgetUsageRatioZeroLimit(t *testing.T) {
	s := DashboardStats{
		TotalBudgetLimit: decimal.Zero,
		TotalBudgetSpent: decimal.NewFromInt(50),
	}
	assert.Zero(t, s.BudgetUsageRatio())
}

func TestComputeAggregates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	renewing := sub("soon", 10, model.CycleMonthly, true)
	renewing.RenewalDate = now.Add(48 * time.Hour)
	later := sub("later", 20, model.CycleMonthly, true)
	later.RenewalDate = now.Add(60 * 24 * time.Hour)

	budgets := []model.Budget{
		{ID: "b1", UserID: "u1", MonthlyLimit: decimal.NewFromInt(200), CurrentSpending: decimal.NewFromInt(80), IsActive: true},
		{ID: "b2", UserID: "u1", MonthlyLimit: decimal.NewFromInt(999), CurrentSpending: decimal.NewFromInt(999), IsActive: false},
	}
	goals := []model.Goal{
		{ID: "g1", UserID: "u1", CurrentAmount: decimal.NewFromInt(25), TargetAmount: decimal.NewFromInt(100), IsActive: true},
	}
	docs := []model.Document{{ID: "d1", UserID: "u1", Title: "Lease"}}

	got := Compute([]model.Subscription{renewing, later}, docs, budgets, goals, now)

	assert.True(t, got.TotalMonthlySpend.Equal(decimal.NewFromInt(30)))
	assert.True(t, got.TotalYearlySpend.Equal(decimal.NewFromInt(360)))
	assert.Equal(t, 2, got.ActiveSubscriptions)
	assert.Equal(t, 1, got.UpcomingRenewals)
	assert.True(t, got.TotalBudgetLimit.Equal(decimal.NewFromInt(200)), "inactive budgets excluded")
	assert.True(t, got.TotalBudgetSpent.Equal(decimal.NewFromInt(80)))
	assert.InDelta(t, 25.0, got.TotalGoalProgress, 0.001)
	assert.Equal(t, 1, got.ActiveGoals)
	assert.Equal(t, 1, got.DocumentsCount)

	require.InDelta(t, 0.4, got.BudgetUsageRatio(), 0.001)
}
