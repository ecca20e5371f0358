package main

import (
	"fmt"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/reminder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func remindCmd() *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "File notifications for subscriptions renewing soon",
		Long: `Scan subscriptions renewing in the next seven days and file a
notification for each. With --daemon, keep running and rescan on a cron
schedule (reminders.schedule, default daily at 8am).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := config.UserID()
			if err != nil {
				return err
			}
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			sched := reminder.New(s, userID)

			if err := sched.Scan(ctx); err != nil {
				return fmt.Errorf("renewal scan failed: %w", err)
			}
			if !daemon {
				fmt.Println(cli.FormatSuccess("Renewal scan complete"))
				return nil
			}

			schedule := viper.GetString("reminders.schedule")
			if schedule == "" {
				schedule = reminder.DefaultSchedule
			}
			if err := sched.Start(schedule); err != nil {
				return err
			}
			defer sched.Stop()

			fmt.Println(cli.FormatInfo("Reminder daemon running; press Ctrl-C to stop"))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep running and rescan on a schedule")
	return cmd
}
