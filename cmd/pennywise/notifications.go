package main

import (
	"fmt"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/spf13/cobra"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Review notifications",
	}

	cmd.AddCommand(listNotificationsCmd())
	cmd.AddCommand(markReadCmd())

	return cmd
}

func listNotificationsCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			notifications := tracker.Notifications.Snapshot()
			if unreadOnly {
				var unread []model.Notification
				for _, n := range notifications {
					if !n.IsRead {
						unread = append(unread, n)
					}
				}
				notifications = unread
			}
			if len(notifications) == 0 {
				fmt.Println(cli.InfoStyle.Render("No notifications."))
				return nil
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tWHEN\tTYPE\tMESSAGE")
			for _, n := range notifications {
				msg := n.Message
				if !n.IsRead {
					msg = cli.BoldStyle.Render(msg)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Format(dateLayout), n.Type, msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show unread notifications only")
	return cmd
}

func markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			read := true
			if _, err := tracker.Notifications.Update(ctx, args[0], model.NotificationPatch{IsRead: &read}); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Notification marked read"))
			return nil
		},
	}
}
