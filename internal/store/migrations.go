package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// expectedSchemaVersion is the latest schema version the application
// expects. Failing to reach it is fatal.
const expectedSchemaVersion = 4

// pgMigration is one versioned schema step.
type pgMigration struct {
	Up          func(ctx context.Context, tx pgx.Tx) error
	Description string
	Version     int
}

var pgMigrations = []pgMigration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(ctx context.Context, tx pgx.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS profiles (
					id text PRIMARY KEY,
					email text NOT NULL,
					full_name text,
					created_at timestamptz NOT NULL DEFAULT now(),
					updated_at timestamptz NOT NULL DEFAULT now()
				)`,

				`CREATE TABLE IF NOT EXISTS subscriptions (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					service_name text NOT NULL,
					cost numeric(12,2) NOT NULL CHECK (cost >= 0),
					renewal_date timestamptz NOT NULL,
					billing_cycle text NOT NULL CHECK (billing_cycle IN ('weekly','monthly','quarterly','yearly')),
					category text NOT NULL DEFAULT '',
					notes text NOT NULL DEFAULT '',
					is_active boolean NOT NULL DEFAULT true,
					created_at timestamptz NOT NULL DEFAULT now(),
					updated_at timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_subscriptions_renewal ON subscriptions(user_id, renewal_date)`,

				`CREATE TABLE IF NOT EXISTS documents (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					title text NOT NULL,
					category text NOT NULL DEFAULT '',
					file_url text NOT NULL,
					file_name text NOT NULL,
					file_size bigint NOT NULL DEFAULT 0,
					tags text[] NOT NULL DEFAULT '{}',
					upload_date timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id, upload_date DESC)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					category text NOT NULL,
					monthly_limit numeric(12,2) NOT NULL CHECK (monthly_limit >= 0),
					current_spending numeric(12,2) NOT NULL DEFAULT 0 CHECK (current_spending >= 0),
					alert_threshold integer NOT NULL DEFAULT 80 CHECK (alert_threshold BETWEEN 1 AND 100),
					is_active boolean NOT NULL DEFAULT true,
					created_at timestamptz NOT NULL DEFAULT now(),
					updated_at timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id, category)`,

				`CREATE TABLE IF NOT EXISTS goals (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					name text NOT NULL,
					target_amount numeric(12,2) NOT NULL CHECK (target_amount >= 0),
					current_amount numeric(12,2) NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
					start_date timestamptz NOT NULL DEFAULT now(),
					end_date timestamptz,
					contribution_frequency text NOT NULL DEFAULT 'monthly' CHECK (contribution_frequency IN ('weekly','monthly','custom')),
					is_active boolean NOT NULL DEFAULT true,
					created_at timestamptz NOT NULL DEFAULT now(),
					updated_at timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at DESC)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					amount numeric(12,2) NOT NULL,
					description text NOT NULL DEFAULT '',
					category text NOT NULL DEFAULT '',
					transaction_type text NOT NULL CHECK (transaction_type IN ('expense','income','goal_contribution')),
					budget_id uuid REFERENCES budgets(id) ON DELETE SET NULL,
					goal_id uuid REFERENCES goals(id) ON DELETE SET NULL,
					transaction_date timestamptz NOT NULL DEFAULT now(),
					created_at timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, transaction_date DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_goal ON transactions(goal_id)`,

				`CREATE TABLE IF NOT EXISTS notifications (
					id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id text NOT NULL,
					type text NOT NULL,
					message text NOT NULL,
					is_read boolean NOT NULL DEFAULT false,
					created_at timestamptz NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(ctx, q); err != nil {
					return fmt.Errorf("migration 1: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Change-feed notify triggers",
		Up: func(ctx context.Context, tx pgx.Tx) error {
			queries := []string{
				`CREATE OR REPLACE FUNCTION pennywise_notify() RETURNS trigger AS $$
				BEGIN
					PERFORM pg_notify(
						'pennywise_' || TG_TABLE_NAME,
						json_build_object(
							'op', TG_OP,
							'new', CASE WHEN TG_OP IN ('INSERT','UPDATE') THEN row_to_json(NEW) END,
							'old', CASE WHEN TG_OP IN ('UPDATE','DELETE') THEN row_to_json(OLD) END
						)::text
					);
					RETURN COALESCE(NEW, OLD);
				END $$ LANGUAGE plpgsql`,
			}
			for _, table := range []string{"subscriptions", "documents", "budgets", "goals", "transactions", "notifications"} {
				queries = append(queries,
					fmt.Sprintf(`DROP TRIGGER IF EXISTS %s_notify ON %s`, table, table),
					fmt.Sprintf(`CREATE TRIGGER %s_notify
						AFTER INSERT OR UPDATE OR DELETE ON %s
						FOR EACH ROW EXECUTE FUNCTION pennywise_notify()`, table, table),
				)
			}
			for _, q := range queries {
				if _, err := tx.Exec(ctx, q); err != nil {
					return fmt.Errorf("migration 2: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Derive budget spending from expense transactions",
		Up: func(ctx context.Context, tx pgx.Tx) error {
			queries := []string{
				`CREATE OR REPLACE FUNCTION pennywise_apply_expense() RETURNS trigger AS $$
				BEGIN
					IF NEW.transaction_type = 'expense' AND NEW.budget_id IS NOT NULL THEN
						UPDATE budgets
						SET current_spending = current_spending + NEW.amount,
							updated_at = now()
						WHERE id = NEW.budget_id;
					END IF;
					RETURN NEW;
				END $$ LANGUAGE plpgsql`,
				`DROP TRIGGER IF EXISTS transactions_apply_expense ON transactions`,
				`CREATE TRIGGER transactions_apply_expense
					AFTER INSERT ON transactions
					FOR EACH ROW EXECUTE FUNCTION pennywise_apply_expense()`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(ctx, q); err != nil {
					return fmt.Errorf("migration 3: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Guard notify payloads against the 8000-byte cap",
		Up: func(ctx context.Context, tx pgx.Tx) error {
			// NOTIFY payloads are capped at 8000 bytes; raising past the
			// cap would fail the user's own write. Oversized rows fall
			// back to id-only images marked partial, and the client
			// refetches the full row.
			query := `CREATE OR REPLACE FUNCTION pennywise_notify() RETURNS trigger AS $$
			DECLARE
				payload text;
			BEGIN
				payload := json_build_object(
					'op', TG_OP,
					'new', CASE WHEN TG_OP IN ('INSERT','UPDATE') THEN row_to_json(NEW) END,
					'old', CASE WHEN TG_OP IN ('UPDATE','DELETE') THEN row_to_json(OLD) END
				)::text;
				IF octet_length(payload) > 7500 THEN
					payload := json_build_object(
						'op', TG_OP,
						'partial', true,
						'new', CASE WHEN TG_OP IN ('INSERT','UPDATE') THEN json_build_object('id', NEW.id, 'user_id', NEW.user_id) END,
						'old', CASE WHEN TG_OP IN ('UPDATE','DELETE') THEN json_build_object('id', OLD.id, 'user_id', OLD.user_id) END
					)::text;
				END IF;
				PERFORM pg_notify('pennywise_' || TG_TABLE_NAME, payload);
				RETURN COALESCE(NEW, OLD);
			END $$ LANGUAGE plpgsql`
			if _, err := tx.Exec(ctx, query); err != nil {
				return fmt.Errorf("migration 4: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the schema up to the expected version. Each migration
// runs in its own transaction; a failure stops the chain.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version integer PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range pgMigrations {
		if m.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", m.Version,
			"description", m.Description)

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	var final int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&final); err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	if final < expectedSchemaVersion {
		return fmt.Errorf("schema at version %d, expected %d", final, expectedSchemaVersion)
	}
	return nil
}
