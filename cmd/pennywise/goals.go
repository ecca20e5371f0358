package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/Veraticus/pennywise/internal/sync"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
		Long:  `Create savings goals, contribute toward them, and follow their progress.`,
	}

	cmd.AddCommand(listGoalsCmd())
	cmd.AddCommand(addGoalCmd())
	cmd.AddCommand(updateGoalCmd())
	cmd.AddCommand(removeGoalCmd())
	cmd.AddCommand(contributeCmd())

	return cmd
}

func listGoalsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			goals := stats.FilterGoals(tracker.Goals.Snapshot(), query)
			if len(goals) == 0 {
				fmt.Println(cli.InfoStyle.Render("No goals found. Use 'pennywise goals add' to create one."))
				return nil
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tSAVED\tTARGET\tPROGRESS\tFREQUENCY")
			for _, g := range goals {
				fmt.Fprintf(w, "%s\t%s\t$%s\t$%s\t%.1f%%\t%s\n",
					g.ID, g.Name, g.CurrentAmount.StringFixed(2),
					g.TargetAmount.StringFixed(2), g.Progress()*100, g.ContributionFrequency)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by name")
	return cmd
}

func addGoalCmd() *cobra.Command {
	var (
		target    string
		frequency string
		ends      string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			targetAmount, err := decimal.NewFromString(target)
			if err != nil {
				return fmt.Errorf("invalid target %q: %w", target, err)
			}

			if !model.ContributionFrequency(frequency).Valid() {
				return fmt.Errorf("invalid frequency %q; use weekly, monthly, or custom", frequency)
			}

			goal := model.Goal{
				Name:                  args[0],
				TargetAmount:          targetAmount,
				StartDate:             time.Now(),
				ContributionFrequency: model.ContributionFrequency(frequency),
				IsActive:              true,
			}
			if ends != "" {
				endDate, err := time.Parse(dateLayout, ends)
				if err != nil {
					return fmt.Errorf("invalid end date %q: %w", ends, err)
				}
				goal.EndDate = &endDate
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			goal.UserID = tracker.Goals.UserID()
			created, err := tracker.Goals.Create(ctx, goal)
			if err != nil {
				return fmt.Errorf("failed to add goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added goal %s (%s)", created.Name, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target amount to save (required)")
	cmd.Flags().StringVar(&frequency, "frequency", "monthly", "contribution frequency: weekly, monthly, custom")
	cmd.Flags().StringVar(&ends, "ends", "", "optional end date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func updateGoalCmd() *cobra.Command {
	var (
		name      string
		target    string
		frequency string
		ends      string
		noEnd     bool
		active    bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a goal",
		Long:  `Update a goal's name, target, schedule, or status. Saved balances only move through contributions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var patch model.GoalPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("target") {
				targetAmount, err := decimal.NewFromString(target)
				if err != nil {
					return fmt.Errorf("invalid target %q: %w", target, err)
				}
				patch.TargetAmount = &targetAmount
			}
			if cmd.Flags().Changed("frequency") {
				f := model.ContributionFrequency(frequency)
				patch.ContributionFrequency = &f
			}
			if cmd.Flags().Changed("ends") {
				endDate, err := time.Parse(dateLayout, ends)
				if err != nil {
					return fmt.Errorf("invalid end date %q: %w", ends, err)
				}
				patch.EndDate = &endDate
			}
			if noEnd {
				patch.ClearEndDate = true
			}
			if cmd.Flags().Changed("active") {
				patch.IsActive = &active
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Goals.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated goal %s", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	cmd.Flags().StringVar(&frequency, "frequency", "", "contribution frequency")
	cmd.Flags().StringVar(&ends, "ends", "", "end date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&noEnd, "no-end", false, "clear the end date")
	cmd.Flags().BoolVar(&active, "active", true, "whether the goal is active")

	return cmd
}

func removeGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := tracker.Goals.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove goal: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Goal removed"))
			return nil
		},
	}
}

func contributeCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "contribute <goal-id> <amount>",
		Short: "Contribute to a goal",
		Long:  `Record a contribution transaction and add the amount to the goal's saved balance.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Goals.AddContribution(ctx, args[0], amount, description)
			if err != nil {
				var partial *sync.ContributionError
				if errors.As(err, &partial) {
					fmt.Println(cli.FormatWarning(fmt.Sprintf(
						"Transaction %s was recorded, but the goal balance was not updated: %v",
						partial.TransactionID, partial.Err)))
					return err
				}
				return fmt.Errorf("failed to contribute: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Contributed $%s to %s ($%s of $%s saved)",
				amount.StringFixed(2), updated.Name,
				updated.CurrentAmount.StringFixed(2), updated.TargetAmount.StringFixed(2))))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	return cmd
}
