// Package stats computes the derived view model: dashboard aggregates,
// search filtering, and category facets. Everything here is a pure
// function of the current collections; there is no state to keep in
// sync.
package stats

import (
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/shopspring/decimal"
)

// renewalWindow is how far ahead the dashboard looks for renewals.
const renewalWindow = 7 * 24 * time.Hour

// DashboardStats aggregates the headline numbers across collections.
type DashboardStats struct {
	TotalMonthlySpend   decimal.Decimal
	TotalYearlySpend    decimal.Decimal
	TotalBudgetLimit    decimal.Decimal
	TotalBudgetSpent    decimal.Decimal
	TotalGoalProgress   float64
	ActiveSubscriptions int
	UpcomingRenewals    int
	DocumentsCount      int
	ActiveGoals         int
}

// Compute recalculates the dashboard from the current collections.
func Compute(subs []model.Subscription, docs []model.Document, budgets []model.Budget, goals []model.Goal, now time.Time) DashboardStats {
	monthly := MonthlySpend(subs)

	active := 0
	for _, s := range subs {
		if s.IsActive {
			active++
		}
	}

	limit := decimal.Zero
	spent := decimal.Zero
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		limit = limit.Add(b.MonthlyLimit)
		spent = spent.Add(b.CurrentSpending)
	}

	return DashboardStats{
		TotalMonthlySpend:   monthly,
		TotalYearlySpend:    monthly.Mul(decimal.NewFromInt(12)),
		TotalBudgetLimit:    limit,
		TotalBudgetSpent:    spent,
		TotalGoalProgress:   GoalProgress(goals),
		ActiveSubscriptions: active,
		UpcomingRenewals:    len(UpcomingRenewals(subs, now)),
		DocumentsCount:      len(docs),
		ActiveGoals:         countActiveGoals(goals),
	}
}

// BudgetUsageRatio returns total spending over total limit across
// active budgets, and 0 when no limit exists.
func (s DashboardStats) BudgetUsageRatio() float64 {
	if s.TotalBudgetLimit.IsZero() {
		return 0
	}
	ratio, _ := s.TotalBudgetSpent.Div(s.TotalBudgetLimit).Float64()
	return ratio
}

// MonthlySpend sums the monthly-normalized cost of active subscriptions.
func MonthlySpend(subs []model.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subs {
		if !s.IsActive {
			continue
		}
		total = total.Add(s.MonthlyCost())
	}
	return total
}

// UpcomingRenewals returns active subscriptions renewing strictly after
// now and strictly before now plus seven days. Both bounds are
// exclusive: a renewal at the current instant is already due, not
// upcoming, and one exactly seven days out falls past the window.
func UpcomingRenewals(subs []model.Subscription, now time.Time) []model.Subscription {
	limit := now.Add(renewalWindow)
	var out []model.Subscription
	for _, s := range subs {
		if !s.IsActive {
			continue
		}
		if s.RenewalDate.After(now) && s.RenewalDate.Before(limit) {
			out = append(out, s)
		}
	}
	return out
}

// GoalProgress returns the mean progress of active goals as a
// percentage, 0 when there are none. Per-goal ratios are not clamped,
// so an over-funded goal pulls the mean above its share.
func GoalProgress(goals []model.Goal) float64 {
	total := 0.0
	count := 0
	for _, g := range goals {
		if !g.IsActive {
			continue
		}
		total += g.Progress()
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count) * 100
}

func countActiveGoals(goals []model.Goal) int {
	n := 0
	for _, g := range goals {
		if g.IsActive {
			n++
		}
	}
	return n
}
