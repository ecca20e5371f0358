package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures the configured store has all the required tables,
indexes, and change-feed triggers for the application to function.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			slog.Info("🗄️  Running database migrations...")

			// initStore migrates as part of opening the store
			s, err := initStore(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = s.Close() }()

			slog.Info("✅ Database migrations completed successfully!")
			return nil
		},
	}
}
