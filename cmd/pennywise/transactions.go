package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Record and review transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(removeTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			txns := tracker.Transactions.Snapshot()
			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}
			if limit > 0 && len(txns) > limit {
				txns = txns[:limit]
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION")
			for _, t := range txns {
				fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%s\t%s\n",
					t.ID, t.TransactionDate.Format(dateLayout), t.Type,
					t.Amount.StringFixed(2), t.Category, t.Description)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "maximum rows to show (0 for all)")
	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		txType      string
		category    string
		description string
		budgetID    string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction",
		Long:  `Record an expense or income transaction. Expenses linked to a budget advance that budget's spending.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			if amount.IsNegative() {
				return fmt.Errorf("amount must not be negative; use --type income for money in")
			}
			kind := model.TransactionType(txType)
			if kind != model.TypeExpense && kind != model.TypeIncome {
				return fmt.Errorf("invalid transaction type %q; use expense or income", txType)
			}

			txnDate := time.Now()
			if date != "" {
				txnDate, err = time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			txn := model.Transaction{
				UserID:          tracker.Transactions.UserID(),
				Amount:          amount,
				Description:     description,
				Category:        category,
				Type:            kind,
				TransactionDate: txnDate,
			}
			if budgetID != "" {
				txn.BudgetID = &budgetID
			}

			created, err := tracker.Transactions.Create(ctx, txn)
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of $%s (%s)", created.Type, created.Amount.StringFixed(2), created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type: expense or income")
	cmd.Flags().StringVar(&category, "category", "", "spending category")
	cmd.Flags().StringVar(&description, "description", "", "what the money was for")
	cmd.Flags().StringVar(&budgetID, "budget", "", "budget id to count an expense against")
	cmd.Flags().StringVar(&date, "date", "", "transaction date, YYYY-MM-DD (defaults to today)")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		amount      string
		category    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction's amount, category, or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var patch model.TransactionPatch
			if cmd.Flags().Changed("amount") {
				parsed, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
				patch.Amount = &parsed
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Transactions.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %s of $%s", updated.Type, updated.Amount.StringFixed(2))))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().StringVar(&category, "category", "", "spending category")
	cmd.Flags().StringVar(&description, "description", "", "what the money was for")

	return cmd
}

func removeTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := tracker.Transactions.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove transaction: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Transaction removed"))
			return nil
		},
	}
}
