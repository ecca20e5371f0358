package stats

import (
	"testing"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSubscriptionsMatchesAnyField(t *testing.T) {
	subs := []model.Subscription{
		{ID: "s1", UserID: "u1", ServiceName: "Netflix", Category: "Streaming"},
		{ID: "s2", UserID: "u1", ServiceName: "Gym", Notes: "cancel after summer"},
		{ID: "s3", UserID: "u1", ServiceName: "iCloud", Category: "Storage"},
	}

	assert.Len(t, FilterSubscriptions(subs, "NETFLIX", ""), 1)
	assert.Len(t, FilterSubscriptions(subs, "summer", ""), 1)
	assert.Len(t, FilterSubscriptions(subs, "stream", ""), 1)
	assert.Empty(t, FilterSubscriptions(subs, "spotify", ""))
}

func TestFilterSubscriptionsEmptyQueryMatchesAll(t *testing.T) {
	subs := []model.Subscription{
		{ID: "s1", UserID: "u1", ServiceName: "Netflix"},
		{ID: "s2", UserID: "u1", ServiceName: "Gym"},
	}
	assert.Len(t, FilterSubscriptions(subs, "", ""), 2)
}

func TestFilterSubscriptionsCategoryIsExact(t *testing.T) {
	subs := []model.Subscription{
		{ID: "s1", UserID: "u1", ServiceName: "Netflix", Category: "Streaming"},
		{ID: "s2", UserID: "u1", ServiceName: "Spotify", Category: "Stream"},
	}

	got := FilterSubscriptions(subs, "", "Stream")
	require.Len(t, got, 1)
	assert.Equal(t, "s2", got[0].ID)
}

func TestFilterDocumentsSearchesTags(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", UserID: "u1", Title: "Lease", FileName: "lease.pdf", Tags: []string{"housing", "2026"}},
		{ID: "d2", UserID: "u1", Title: "W2", FileName: "w2.pdf", Tags: []string{"taxes"}},
	}

	assert.Len(t, FilterDocuments(docs, "housing", ""), 1)
	assert.Len(t, FilterDocuments(docs, "w2", ""), 1)
	assert.Len(t, FilterDocuments(docs, "", ""), 2)
}

func TestFilterGoalsByName(t *testing.T) {
	goals := []model.Goal{
		{ID: "g1", UserID: "u1", Name: "Vacation"},
		{ID: "g2", UserID: "u1", Name: "Emergency fund"},
	}

	got := FilterGoals(goals, "vaca")
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	budgets := []model.Budget{
		{ID: "b1", Category: "Food"},
		{ID: "b2", Category: "Rent"},
		{ID: "b3", Category: "Food"},
		{ID: "b4", Category: ""},
		{ID: "b5", Category: "Fun"},
	}

	got := Categories(budgets, func(b model.Budget) string { return b.Category })
	assert.Equal(t, []string{"Food", "Rent", "Fun"}, got)
}
