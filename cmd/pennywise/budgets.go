package main

import (
	"fmt"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(updateBudgetCmd())
	cmd.AddCommand(removeBudgetCmd())

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			budgets := stats.FilterBudgets(tracker.Budgets.Snapshot(), query, "")
			if len(budgets) == 0 {
				fmt.Println(cli.InfoStyle.Render("No budgets found. Use 'pennywise budgets add' to create one."))
				return nil
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tCATEGORY\tSPENT\tLIMIT\tUSED\tALERT AT")
			for _, b := range budgets {
				used := fmt.Sprintf("%.0f%%", b.UsageRatio()*100)
				if b.OverThreshold() {
					used = cli.WarningStyle.Render(used + " " + cli.WarningIcon)
				}
				fmt.Fprintf(w, "%s\t%s\t$%s\t$%s\t%s\t%d%%\n",
					b.ID, b.Category, b.CurrentSpending.StringFixed(2),
					b.MonthlyLimit.StringFixed(2), used, b.AlertThreshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by category")
	return cmd
}

func addBudgetCmd() *cobra.Command {
	var (
		limit     string
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "add <category>",
		Short: "Add a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			monthlyLimit, err := decimal.NewFromString(limit)
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", limit, err)
			}
			if threshold < 0 || threshold > 100 {
				return fmt.Errorf("alert threshold must be between 0 and 100, got %d", threshold)
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := tracker.Budgets.Create(ctx, model.Budget{
				UserID:         tracker.Budgets.UserID(),
				Category:       args[0],
				MonthlyLimit:   monthlyLimit,
				AlertThreshold: threshold,
				IsActive:       true,
			})
			if err != nil {
				return fmt.Errorf("failed to add budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added budget for %s (%s)", created.Category, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&limit, "limit", "", "monthly spending limit (required)")
	cmd.Flags().IntVar(&threshold, "alert-at", 80, "alert threshold as a percentage of the limit")
	_ = cmd.MarkFlagRequired("limit")

	return cmd
}

func updateBudgetCmd() *cobra.Command {
	var (
		category  string
		limit     string
		threshold int
		active    bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var patch model.BudgetPatch
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("limit") {
				monthlyLimit, err := decimal.NewFromString(limit)
				if err != nil {
					return fmt.Errorf("invalid limit %q: %w", limit, err)
				}
				patch.MonthlyLimit = &monthlyLimit
			}
			if cmd.Flags().Changed("alert-at") {
				if threshold < 0 || threshold > 100 {
					return fmt.Errorf("alert threshold must be between 0 and 100, got %d", threshold)
				}
				patch.AlertThreshold = &threshold
			}
			if cmd.Flags().Changed("active") {
				patch.IsActive = &active
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Budgets.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated budget for %s", updated.Category)))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "budget category")
	cmd.Flags().StringVar(&limit, "limit", "", "monthly spending limit")
	cmd.Flags().IntVar(&threshold, "alert-at", 80, "alert threshold percentage")
	cmd.Flags().BoolVar(&active, "active", true, "whether the budget is active")

	return cmd
}

func removeBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := tracker.Budgets.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove budget: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Budget removed"))
			return nil
		},
	}
}
