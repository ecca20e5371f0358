package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/store"
	"github.com/Veraticus/pennywise/internal/sync"
)

// initStore opens the configured store backend and runs migrations.
func initStore(ctx context.Context) (service.Store, error) {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return nil, err
	}

	var s service.Store
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		if mkErr := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", mkErr)
		}
		s, err = store.NewSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// initTracker opens the store and loads every collection for the
// configured user. The caller owns the returned store's lifetime.
func initTracker(ctx context.Context) (*sync.Tracker, service.Store, error) {
	userID, err := config.UserID()
	if err != nil {
		return nil, nil, common.NewUserError(
			"set an account id with --user, user.id in the config file, or PENNYWISE_USER_ID", err)
	}

	s, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	tracker := sync.NewTracker(s, userID)
	if err := tracker.LoadAll(ctx); err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("failed to load collections: %w", err)
	}
	return tracker, s, nil
}

// newTable returns a tabwriter wired to stdout for list output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
