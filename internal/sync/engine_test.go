package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBudgetEngine() (*Engine[model.Budget, model.BudgetPatch], *store.MockCollection[model.Budget, model.BudgetPatch]) {
	col := store.NewMockCollection[model.Budget, model.BudgetPatch]()
	return New[model.Budget, model.BudgetPatch]("budgets", col, "u1"), col
}

func TestLoadReplacesCollection(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, userID string) ([]model.Budget, error) {
		assert.Equal(t, "u1", userID)
		return []model.Budget{budget("b1", "Food"), budget("b2", "Rent")}, nil
	}

	assert.True(t, eng.Loading())
	require.NoError(t, eng.Load(context.Background()))
	assert.False(t, eng.Loading())
	assert.Equal(t, 2, eng.Len())
	assert.NoError(t, eng.Err())
}

func TestLoadFailureKeepsPreviousCollection(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return []model.Budget{budget("b1", "Food")}, nil
	}
	require.NoError(t, eng.Load(context.Background()))

	listErr := errors.New("connection reset")
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return nil, listErr
	}

	err := eng.Load(context.Background())
	require.ErrorIs(t, err, listErr)
	assert.Equal(t, 1, eng.Len(), "stale rows beat no rows")
	assert.ErrorIs(t, eng.Err(), listErr)
	assert.False(t, eng.Loading())
}

func TestErrSlotClearsOnSuccess(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return nil, errors.New("boom")
	}
	require.Error(t, eng.Load(context.Background()))
	require.Error(t, eng.Err())

	col.ListFn = nil
	require.NoError(t, eng.Load(context.Background()))
	assert.NoError(t, eng.Err())
}

func TestLoadWithoutUserIsNoOp(t *testing.T) {
	col := store.NewMockCollection[model.Budget, model.BudgetPatch]()
	eng := New[model.Budget, model.BudgetPatch]("budgets", col, "")

	require.NoError(t, eng.Load(context.Background()))
	assert.Empty(t, col.ListCalls)
	assert.False(t, eng.Loading(), "nothing to load means nothing is loading")
}

func TestCreateAppliesCanonicalRow(t *testing.T) {
	eng, col := newBudgetEngine()
	col.InsertFn = func(_ context.Context, row model.Budget) (model.Budget, error) {
		row.ID = "b-server"
		return row, nil
	}

	created, err := eng.Create(context.Background(), model.Budget{UserID: "u1", Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, "b-server", created.ID)

	got, ok := eng.Find("b-server")
	require.True(t, ok)
	assert.Equal(t, "Food", got.Category)
}

func TestCreateThenFeedInsertDoesNotDuplicate(t *testing.T) {
	eng, col := newBudgetEngine()
	col.InsertFn = func(_ context.Context, row model.Budget) (model.Budget, error) {
		row.ID = "b1"
		return row, nil
	}

	created, err := eng.Create(context.Background(), model.Budget{UserID: "u1", Category: "Food"})
	require.NoError(t, err)

	// The feed's own INSERT for the write arrives afterwards
	eng.Reconcile(service.InsertEvent(created))
	assert.Equal(t, 1, eng.Len())
}

func TestUpdateSplicesResultImmediately(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return []model.Budget{budget("b1", "Food")}, nil
	}
	require.NoError(t, eng.Load(context.Background()))

	col.UpdateFn = func(_ context.Context, id string, _ model.BudgetPatch) (model.Budget, error) {
		return budget(id, "Groceries"), nil
	}

	category := "Groceries"
	updated, err := eng.Update(context.Background(), "b1", model.BudgetPatch{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Category)

	// No refetch or feed delivery needed; the splice already happened
	got, ok := eng.Find("b1")
	require.True(t, ok)
	assert.Equal(t, "Groceries", got.Category)
}

func TestDeleteThenFeedDeleteIsIdempotent(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return []model.Budget{budget("b1", "Food")}, nil
	}
	require.NoError(t, eng.Load(context.Background()))

	require.NoError(t, eng.Delete(context.Background(), "b1"))
	assert.Equal(t, 0, eng.Len())

	eng.Reconcile(service.DeleteEvent(budget("b1", "Food")))
	assert.Equal(t, 0, eng.Len())
}

func TestMutationFailureLeavesCollectionUntouched(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return []model.Budget{budget("b1", "Food")}, nil
	}
	require.NoError(t, eng.Load(context.Background()))

	col.DeleteFn = func(_ context.Context, _ string) error {
		return common.ErrNotFound
	}
	require.ErrorIs(t, eng.Delete(context.Background(), "b1"), common.ErrNotFound)
	assert.Equal(t, 1, eng.Len())
	assert.ErrorIs(t, eng.Err(), common.ErrNotFound)
}

func TestReconcileIgnoresOtherUsers(t *testing.T) {
	eng, _ := newBudgetEngine()

	other := model.Budget{ID: "b9", UserID: "u2", Category: "Theirs"}
	eng.Reconcile(service.InsertEvent(other))
	assert.Equal(t, 0, eng.Len())
}

func TestReconcileUpdateForUnknownRowIsIgnored(t *testing.T) {
	eng, _ := newBudgetEngine()

	eng.Reconcile(service.UpdateEvent(budget("b1", "Food"), budget("b1", "Old")))
	assert.Equal(t, 0, eng.Len(), "UPDATE has no insert-on-miss")
}

func TestReconcileAppliesInArrivalOrder(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		return []model.Budget{budget("b2", "Rent")}, nil
	}
	require.NoError(t, eng.Load(context.Background()))

	// b1 sorts before b2 canonically, but reconciliation appends
	eng.Reconcile(service.InsertEvent(budget("b1", "Food")))

	items := eng.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, "b2", items[0].ID)
	assert.Equal(t, "b1", items[1].ID)
}

func TestCloseDropsInFlightLoad(t *testing.T) {
	eng, col := newBudgetEngine()
	col.ListFn = func(_ context.Context, _ string) ([]model.Budget, error) {
		// Teardown happens while the request is outstanding
		eng.Close()
		return []model.Budget{budget("b1", "Food")}, nil
	}

	err := eng.Load(context.Background())
	require.ErrorIs(t, err, common.ErrEngineClosed)
	assert.Equal(t, 0, eng.Len())
}

func TestClosedEngineRejectsMutations(t *testing.T) {
	eng, _ := newBudgetEngine()
	eng.Close()

	_, err := eng.Create(context.Background(), budget("b1", "Food"))
	assert.ErrorIs(t, err, common.ErrEngineClosed)
	assert.ErrorIs(t, eng.Delete(context.Background(), "b1"), common.ErrEngineClosed)
}

func TestRunReconcilesFeedEvents(t *testing.T) {
	eng, col := newBudgetEngine()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	col.Events <- service.InsertEvent(budget("b1", "Food"))
	require.Eventually(t, func() bool {
		return eng.Len() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, col.Cancelled)
}

func TestRunEndsWhenFeedCloses(t *testing.T) {
	eng, col := newBudgetEngine()

	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background()) }()

	close(col.Events)
	require.NoError(t, <-done)
}
