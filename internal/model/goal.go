package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributionFrequency describes how often the user intends to
// contribute toward a goal.
type ContributionFrequency string

const (
	// ContributeWeekly means weekly contributions.
	ContributeWeekly ContributionFrequency = "weekly"
	// ContributeMonthly means monthly contributions.
	ContributeMonthly ContributionFrequency = "monthly"
	// ContributeCustom means no fixed schedule.
	ContributeCustom ContributionFrequency = "custom"
)

// Valid reports whether the frequency is one of the known values.
func (f ContributionFrequency) Valid() bool {
	switch f {
	case ContributeWeekly, ContributeMonthly, ContributeCustom:
		return true
	}
	return false
}

// Goal is a savings target. CurrentAmount starts at zero and advances
// only through goal_contribution transactions; the balance update is a
// server-evaluated increment, never a client-computed absolute value.
type Goal struct {
	StartDate             time.Time             `json:"start_date"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
	EndDate               *time.Time            `json:"end_date"`
	ID                    string                `json:"id"`
	UserID                string                `json:"user_id"`
	Name                  string                `json:"name"`
	ContributionFrequency ContributionFrequency `json:"contribution_frequency"`
	TargetAmount          decimal.Decimal       `json:"target_amount"`
	CurrentAmount         decimal.Decimal       `json:"current_amount"`
	IsActive              bool                  `json:"is_active"`
}

// EntityID implements Entity.
func (g Goal) EntityID() string { return g.ID }

// OwnerID implements Entity.
func (g Goal) OwnerID() string { return g.UserID }

// Progress returns current over target as a fraction. Over-funded goals
// exceed 1; the value is deliberately unclamped.
func (g Goal) Progress() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	p, _ := g.CurrentAmount.Div(g.TargetAmount).Float64()
	return p
}

// GoalPatch is a partial update; nil fields are left unchanged.
// CurrentAmount is intentionally absent: balances move only through
// contributions. ClearEndDate removes an existing end date.
type GoalPatch struct {
	Name                  *string
	TargetAmount          *decimal.Decimal
	StartDate             *time.Time
	EndDate               *time.Time
	ContributionFrequency *ContributionFrequency
	IsActive              *bool
	ClearEndDate          bool
}
