package stats

import (
	"strings"

	"github.com/Veraticus/pennywise/internal/model"
)

// matches reports whether any of the fields contains query,
// case-insensitively. An empty query matches everything.
func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterSubscriptions returns subscriptions whose name, notes, or
// category contains query, optionally restricted to an exact category.
func FilterSubscriptions(subs []model.Subscription, query, category string) []model.Subscription {
	var out []model.Subscription
	for _, s := range subs {
		if !matches(query, s.ServiceName, s.Notes, s.Category) {
			continue
		}
		if category != "" && s.Category != category {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FilterDocuments returns documents whose title, filename, or any tag
// contains query, optionally restricted to an exact category.
func FilterDocuments(docs []model.Document, query, category string) []model.Document {
	var out []model.Document
	for _, d := range docs {
		fields := append([]string{d.Title, d.FileName}, d.Tags...)
		if !matches(query, fields...) {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FilterBudgets returns budgets whose category contains query,
// optionally restricted to an exact category.
func FilterBudgets(budgets []model.Budget, query, category string) []model.Budget {
	var out []model.Budget
	for _, b := range budgets {
		if !matches(query, b.Category) {
			continue
		}
		if category != "" && b.Category != category {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FilterGoals returns goals whose name contains query. Goals carry no
// category, so there is no category filter.
func FilterGoals(goals []model.Goal, query string) []model.Goal {
	var out []model.Goal
	for _, g := range goals {
		if matches(query, g.Name) {
			out = append(out, g)
		}
	}
	return out
}

// Categories extracts the distinct non-empty category values present in
// items, in first-seen order.
func Categories[T any](items []T, category func(T) string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		c := category(item)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
