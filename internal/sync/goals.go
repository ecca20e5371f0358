package sync

import (
	"context"
	"fmt"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/shopspring/decimal"
)

// ContributionError reports a contribution that half-landed: the
// transaction row exists but the goal balance update failed. Callers
// must distinguish this from a clean failure, where nothing was
// written; TransactionID names the orphaned record.
type ContributionError struct {
	Err           error
	TransactionID string
	GoalID        string
}

func (e *ContributionError) Error() string {
	return fmt.Sprintf("contribution recorded as transaction %s but goal %s balance not updated: %v",
		e.TransactionID, e.GoalID, e.Err)
}

func (e *ContributionError) Unwrap() error {
	return e.Err
}

// Goals is the goal engine plus the contribution flow, which touches
// both the goals and transactions tables.
type Goals struct {
	*Engine[model.Goal, model.GoalPatch]
	goals        service.GoalCollection
	transactions *Engine[model.Transaction, model.TransactionPatch]
}

// NewGoals creates the goals engine. The transactions engine is shared
// with the rest of the tracker so contribution records land in the same
// local collection the UI reads.
func NewGoals(store service.GoalCollection, transactions *Engine[model.Transaction, model.TransactionPatch], userID string) *Goals {
	return &Goals{
		Engine:       New[model.Goal, model.GoalPatch]("goals", store, userID),
		goals:        store,
		transactions: transactions,
	}
}

// AddContribution moves amount toward a goal in two steps: insert the
// goal_contribution transaction, then increment the goal balance. The
// increment is evaluated on the server as a delta, so two racing
// contributions both land.
//
// If the transaction insert fails, nothing was written and the goal is
// unchanged. If it succeeds and the increment fails, the returned error
// is a *ContributionError carrying the orphaned transaction's ID; no
// compensation is attempted.
func (g *Goals) AddContribution(ctx context.Context, goalID string, amount decimal.Decimal, description string) (model.Goal, error) {
	var zero model.Goal

	txn := model.Transaction{
		UserID:      g.UserID(),
		GoalID:      &goalID,
		Amount:      amount,
		Description: description,
		Category:    "goal_contribution",
		Type:        model.TypeGoalContribution,
	}

	created, err := g.transactions.Create(ctx, txn)
	if err != nil {
		return zero, fmt.Errorf("recording contribution: %w", err)
	}

	updated, err := g.goals.AddToCurrentAmount(ctx, goalID, amount)
	if err != nil {
		return zero, &ContributionError{
			TransactionID: created.ID,
			GoalID:        goalID,
			Err:           err,
		}
	}

	g.upsertLocal(updated)
	return updated, nil
}
