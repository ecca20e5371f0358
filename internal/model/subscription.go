package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle describes how often a subscription renews.
type BillingCycle string

const (
	// CycleWeekly renews every week.
	CycleWeekly BillingCycle = "weekly"
	// CycleMonthly renews every month.
	CycleMonthly BillingCycle = "monthly"
	// CycleQuarterly renews every three months.
	CycleQuarterly BillingCycle = "quarterly"
	// CycleYearly renews every year.
	CycleYearly BillingCycle = "yearly"
)

// Valid reports whether the cycle is one of the known values.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	}
	return false
}

// weeksPerMonth is the average number of weeks in a month, matching the
// figure the dashboard has always used.
var weeksPerMonth = decimal.NewFromFloat(4.33)

// Subscription is a recurring service the user pays for.
type Subscription struct {
	RenewalDate  time.Time       `json:"renewal_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ServiceName  string          `json:"service_name"`
	Category     string          `json:"category"`
	Notes        string          `json:"notes"`
	BillingCycle BillingCycle    `json:"billing_cycle"`
	Cost         decimal.Decimal `json:"cost"`
	IsActive     bool            `json:"is_active"`
}

// EntityID implements Entity.
func (s Subscription) EntityID() string { return s.ID }

// OwnerID implements Entity.
func (s Subscription) OwnerID() string { return s.UserID }

// MonthlyCost normalizes the subscription cost to a monthly figure:
// weekly ×4.33, monthly ×1, quarterly ÷3, yearly ÷12.
func (s Subscription) MonthlyCost() decimal.Decimal {
	switch s.BillingCycle {
	case CycleWeekly:
		return s.Cost.Mul(weeksPerMonth)
	case CycleQuarterly:
		return s.Cost.DivRound(decimal.NewFromInt(3), 8)
	case CycleYearly:
		return s.Cost.DivRound(decimal.NewFromInt(12), 8)
	default:
		return s.Cost
	}
}

// SubscriptionPatch is a partial update; nil fields are left unchanged.
type SubscriptionPatch struct {
	ServiceName  *string
	Cost         *decimal.Decimal
	RenewalDate  *time.Time
	BillingCycle *BillingCycle
	Category     *string
	Notes        *string
	IsActive     *bool
}
