package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget tracks monthly spending against a limit for one category.
// CurrentSpending is maintained server-side as expense transactions
// referencing the budget arrive; clients never write it directly.
type Budget struct {
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Category        string          `json:"category"`
	MonthlyLimit    decimal.Decimal `json:"monthly_limit"`
	CurrentSpending decimal.Decimal `json:"current_spending"`
	AlertThreshold  int             `json:"alert_threshold"`
	IsActive        bool            `json:"is_active"`
}

// EntityID implements Entity.
func (b Budget) EntityID() string { return b.ID }

// OwnerID implements Entity.
func (b Budget) OwnerID() string { return b.UserID }

// UsageRatio returns current spending over the monthly limit, or 0 when
// no limit is set.
func (b Budget) UsageRatio() float64 {
	if b.MonthlyLimit.IsZero() {
		return 0
	}
	ratio, _ := b.CurrentSpending.Div(b.MonthlyLimit).Float64()
	return ratio
}

// OverThreshold reports whether spending has crossed the alert
// threshold percentage.
func (b Budget) OverThreshold() bool {
	if b.MonthlyLimit.IsZero() {
		return false
	}
	threshold := b.MonthlyLimit.Mul(decimal.NewFromInt(int64(b.AlertThreshold))).Div(decimal.NewFromInt(100))
	return b.CurrentSpending.GreaterThanOrEqual(threshold)
}

// BudgetPatch is a partial update; nil fields are left unchanged.
type BudgetPatch struct {
	Category       *string
	MonthlyLimit   *decimal.Decimal
	AlertThreshold *int
	IsActive       *bool
}
