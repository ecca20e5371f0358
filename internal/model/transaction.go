package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes the three kinds of money movement.
type TransactionType string

const (
	// TypeExpense is money spent.
	TypeExpense TransactionType = "expense"
	// TypeIncome is money received.
	TypeIncome TransactionType = "income"
	// TypeGoalContribution is money moved toward a savings goal.
	TypeGoalContribution TransactionType = "goal_contribution"
)

// Valid reports whether the type is one of the known values.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeGoalContribution:
		return true
	}
	return false
}

// Transaction is a single money movement, optionally linked to a budget
// or a goal. A zero TransactionDate is assigned by the server on insert.
type Transaction struct {
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
	BudgetID        *string         `json:"budget_id"`
	GoalID          *string         `json:"goal_id"`
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Type            TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
}

// EntityID implements Entity.
func (t Transaction) EntityID() string { return t.ID }

// OwnerID implements Entity.
func (t Transaction) OwnerID() string { return t.UserID }

// TransactionPatch is a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Type        *TransactionType
	BudgetID    *string
	GoalID      *string
}
