package sync

import (
	"testing"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(id, category string) model.Budget {
	return model.Budget{ID: id, UserID: "u1", Category: category}
}

func budgetIDs(c *Collection[model.Budget]) []string {
	items := c.Items()
	ids := make([]string, len(items))
	for i, b := range items {
		ids[i] = b.ID
	}
	return ids
}

func TestUpsertAppendsWhenAbsent(t *testing.T) {
	c := NewCollection[model.Budget]()
	replaced := c.Upsert(budget("b1", "Food"))
	assert.False(t, replaced)
	assert.Equal(t, 1, c.Len())
}

func TestUpsertReplacesInPlace(t *testing.T) {
	c := NewCollection[model.Budget]()
	c.ReplaceAll([]model.Budget{budget("b1", "Food"), budget("b2", "Rent"), budget("b3", "Fun")})

	replaced := c.Upsert(budget("b2", "Housing"))
	assert.True(t, replaced)

	// Position is preserved, not moved to the end
	assert.Equal(t, []string{"b1", "b2", "b3"}, budgetIDs(c))
	got, ok := c.Find("b2")
	require.True(t, ok)
	assert.Equal(t, "Housing", got.Category)
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	c := NewCollection[model.Budget]()
	c.Append(budget("b1", "Food"))
	c.Append(budget("b1", "Food"))
	assert.Equal(t, 2, c.Len())

	// The same sequence through Upsert converges to one row
	c2 := NewCollection[model.Budget]()
	c2.Upsert(budget("b1", "Food"))
	c2.Upsert(budget("b1", "Food"))
	assert.Equal(t, 1, c2.Len())
}

func TestReplaceIgnoresMissingIdentity(t *testing.T) {
	c := NewCollection[model.Budget]()
	c.Append(budget("b1", "Food"))

	assert.False(t, c.Replace(budget("b9", "Ghost")))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Replace(budget("b1", "Groceries")))
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	c := NewCollection[model.Budget]()
	c.Append(budget("b1", "Food"))

	assert.False(t, c.Remove("b9"))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Remove("b1"))
	assert.False(t, c.Remove("b1"))
	assert.Equal(t, 0, c.Len())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := NewCollection[model.Budget]()
	c.Append(budget("b1", "Food"))

	items := c.Items()
	items[0].Category = "Mutated"

	got, ok := c.Find("b1")
	require.True(t, ok)
	assert.Equal(t, "Food", got.Category)
}
