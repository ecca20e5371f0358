package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show a one-shot financial overview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			title := "Pennywise"
			if profile, perr := s.Profile(ctx, tracker.Subscriptions.UserID()); perr == nil && profile != nil && profile.FullName != nil {
				title = fmt.Sprintf("Pennywise · %s", *profile.FullName)
			}
			fmt.Println(cli.FormatTitle(title))

			now := time.Now()
			subs := tracker.Subscriptions.Snapshot()
			summary := stats.Compute(
				subs,
				tracker.Documents.Snapshot(),
				tracker.Budgets.Snapshot(),
				tracker.Goals.Snapshot(),
				now,
			)

			rows := []string{
				fmt.Sprintf("Monthly subscription spend  $%s", summary.TotalMonthlySpend.StringFixed(2)),
				fmt.Sprintf("Yearly subscription spend   $%s", summary.TotalYearlySpend.StringFixed(2)),
				fmt.Sprintf("Active subscriptions        %d", summary.ActiveSubscriptions),
				fmt.Sprintf("Renewing within 7 days      %d", summary.UpcomingRenewals),
				fmt.Sprintf("Budget used                 $%s of $%s (%.0f%%)",
					summary.TotalBudgetSpent.StringFixed(2),
					summary.TotalBudgetLimit.StringFixed(2),
					summary.BudgetUsageRatio()*100),
				fmt.Sprintf("Average goal progress       %.1f%%", summary.TotalGoalProgress),
				fmt.Sprintf("Active goals                %d", summary.ActiveGoals),
				fmt.Sprintf("Documents on file           %d", summary.DocumentsCount),
			}
			fmt.Println(cli.RenderBox("Overview", strings.Join(rows, "\n")))

			upcoming := stats.UpcomingRenewals(subs, now)
			if len(upcoming) > 0 {
				lines := make([]string, 0, len(upcoming))
				for _, sub := range upcoming {
					lines = append(lines, fmt.Sprintf("%s — $%s on %s",
						sub.ServiceName, sub.Cost.StringFixed(2), sub.RenewalDate.Format("Mon Jan 2")))
				}
				fmt.Println(cli.RenderBox("Upcoming renewals", strings.Join(lines, "\n")))
			}

			return nil
		},
	}
}
