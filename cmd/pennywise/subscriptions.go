package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Manage recurring subscriptions",
		Long:  `List, add, update, and remove the recurring subscriptions being tracked.`,
	}

	cmd.AddCommand(listSubscriptionsCmd())
	cmd.AddCommand(addSubscriptionCmd())
	cmd.AddCommand(updateSubscriptionCmd())
	cmd.AddCommand(removeSubscriptionCmd())
	cmd.AddCommand(subscriptionCategoriesCmd())

	return cmd
}

func listSubscriptionsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			subs := stats.FilterSubscriptions(tracker.Subscriptions.Snapshot(), query, "")
			if len(subs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No subscriptions found. Use 'pennywise subscriptions add' to create one."))
				return nil
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tSERVICE\tCOST\tCYCLE\tRENEWS\tCATEGORY")
			for _, sub := range subs {
				fmt.Fprintf(w, "%s\t%s\t$%s\t%s\t%s\t%s\n",
					sub.ID, sub.ServiceName, sub.Cost.StringFixed(2),
					sub.BillingCycle, sub.RenewalDate.Format(dateLayout), sub.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by name, notes, or category")
	return cmd
}

func addSubscriptionCmd() *cobra.Command {
	var (
		cost     string
		cycle    string
		category string
		notes    string
		renews   string
	)

	cmd := &cobra.Command{
		Use:   "add <service-name>",
		Short: "Add a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(cost)
			if err != nil {
				return fmt.Errorf("invalid cost %q: %w", cost, err)
			}
			billingCycle := model.BillingCycle(cycle)
			if !billingCycle.Valid() {
				return fmt.Errorf("invalid billing cycle %q", cycle)
			}
			renewalDate, err := time.Parse(dateLayout, renews)
			if err != nil {
				return fmt.Errorf("invalid renewal date %q: %w", renews, err)
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := tracker.Subscriptions.Create(ctx, model.Subscription{
				UserID:       tracker.Subscriptions.UserID(),
				ServiceName:  args[0],
				Cost:         amount,
				BillingCycle: billingCycle,
				RenewalDate:  renewalDate,
				Category:     category,
				Notes:        notes,
				IsActive:     true,
			})
			if err != nil {
				return fmt.Errorf("failed to add subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s (%s)", created.ServiceName, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&cost, "cost", "", "cost per billing cycle (required)")
	cmd.Flags().StringVar(&cycle, "cycle", "monthly", "billing cycle: weekly, monthly, quarterly, yearly")
	cmd.Flags().StringVar(&category, "category", "", "spending category")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&renews, "renews", "", "next renewal date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("cost")
	_ = cmd.MarkFlagRequired("renews")

	return cmd
}

func updateSubscriptionCmd() *cobra.Command {
	var (
		name     string
		cost     string
		cycle    string
		category string
		notes    string
		renews   string
		active   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var patch model.SubscriptionPatch
			if cmd.Flags().Changed("name") {
				patch.ServiceName = &name
			}
			if cmd.Flags().Changed("cost") {
				amount, err := decimal.NewFromString(cost)
				if err != nil {
					return fmt.Errorf("invalid cost %q: %w", cost, err)
				}
				patch.Cost = &amount
			}
			if cmd.Flags().Changed("cycle") {
				billingCycle := model.BillingCycle(cycle)
				if !billingCycle.Valid() {
					return fmt.Errorf("invalid billing cycle %q", cycle)
				}
				patch.BillingCycle = &billingCycle
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("renews") {
				renewalDate, err := time.Parse(dateLayout, renews)
				if err != nil {
					return fmt.Errorf("invalid renewal date %q: %w", renews, err)
				}
				patch.RenewalDate = &renewalDate
			}
			if cmd.Flags().Changed("active") {
				patch.IsActive = &active
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Subscriptions.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %s", updated.ServiceName)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "service name")
	cmd.Flags().StringVar(&cost, "cost", "", "cost per billing cycle")
	cmd.Flags().StringVar(&cycle, "cycle", "", "billing cycle")
	cmd.Flags().StringVar(&category, "category", "", "spending category")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&renews, "renews", "", "next renewal date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&active, "active", true, "whether the subscription is active")

	return cmd
}

func subscriptionCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			categories := stats.Categories(tracker.Subscriptions.Snapshot(),
				func(sub model.Subscription) string { return sub.Category })
			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories in use."))
				return nil
			}
			for _, c := range categories {
				fmt.Println(c)
			}
			return nil
		},
	}
}

func removeSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := tracker.Subscriptions.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove subscription: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Subscription removed"))
			return nil
		},
	}
}
