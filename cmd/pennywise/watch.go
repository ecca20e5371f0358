package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/pennywise/internal/tui"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the live dashboard",
		Long: `Open a terminal dashboard that stays current against the store's
change feed. Writes made elsewhere show up without refreshing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			defer tracker.Close()

			feedDone := make(chan error, 1)
			go func() {
				feedDone <- tracker.RunAll(ctx)
			}()

			err = tui.Run(ctx, tracker)
			cancel()

			if feedErr := <-feedDone; feedErr != nil && !errors.Is(feedErr, context.Canceled) {
				slog.Warn("Change feed ended with error", "error", feedErr)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
