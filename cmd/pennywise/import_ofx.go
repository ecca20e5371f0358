package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var (
		dryRun   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Examples:
  # Import single file
  pennywise import-ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  pennywise import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Expand globs and collect all files
			var allFiles []string
			for _, pattern := range args {
				matches, err := filepath.Glob(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern %s: %w", pattern, err)
				}
				if len(matches) == 0 {
					// If no glob matches, check if it's a direct file
					if _, err := os.Stat(pattern); err == nil {
						allFiles = append(allFiles, pattern)
					} else {
						slog.Warn("No files found matching pattern", "pattern", pattern)
					}
				} else {
					allFiles = append(allFiles, matches...)
				}
			}
			if len(allFiles) == 0 {
				return fmt.Errorf("no files found to import")
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			parser := ofx.NewParser()
			userID := tracker.Transactions.UserID()

			var imported int
			for _, filePath := range allFiles {
				f, err := os.Open(filePath)
				if err != nil {
					slog.Error("Failed to open file", "file", filePath, "error", err)
					continue
				}
				transactions, err := parser.ParseFile(ctx, f)
				f.Close()
				if err != nil {
					slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
					continue
				}
				if len(transactions) == 0 {
					slog.Warn("No transactions found in file", "file", filepath.Base(filePath))
					continue
				}

				if dryRun {
					fmt.Printf("%s: %d transactions (dry run, not saved)\n", filepath.Base(filePath), len(transactions))
					continue
				}

				bar := progressbar.NewOptions(len(transactions),
					progressbar.OptionSetDescription(filepath.Base(filePath)),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
				)
				for _, txn := range transactions {
					txn.UserID = userID
					if category != "" {
						txn.Category = category
					}
					if _, err := tracker.Transactions.Create(ctx, txn); err != nil {
						return fmt.Errorf("failed to save transaction %q: %w", txn.Description, err)
					}
					imported++
					_ = bar.Add(1)
				}
				fmt.Println()
			}

			if dryRun {
				fmt.Println(cli.FormatInfo("Dry run complete, nothing saved"))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", imported)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview the import without saving")
	cmd.Flags().StringVar(&category, "category", "", "override the inferred category for every imported transaction")

	return cmd
}
