package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/files"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreConfig selects and configures the collection store backend.
type StoreConfig struct {
	// Driver is postgres or sqlite.
	Driver string
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string
}

// Validate ensures the selected driver has what it needs.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: store.database_url is required for the postgres driver", common.ErrMissingConfig)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path is required for the sqlite driver", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", common.ErrInvalidConfig, c.Driver)
	}
	return nil
}

// LoadStoreConfig loads store configuration from Viper and environment
// variables. It follows this precedence:
// 1. Viper configuration (from config file or PENNYWISE_ env vars)
// 2. Direct environment variables (DATABASE_URL)
// 3. Default values (sqlite at ~/.local/share/pennywise/pennywise.db)
func LoadStoreConfig() (*StoreConfig, error) {
	cfg := &StoreConfig{
		Driver:     DriverSQLite,
		SQLitePath: ExpandPath("~/.local/share/pennywise/pennywise.db"),
	}

	if v := viper.GetString("store.driver"); v != "" {
		cfg.Driver = v
	}
	if v := viper.GetString("store.database_url"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := viper.GetString("store.sqlite_path"); v != "" {
		cfg.SQLitePath = ExpandPath(v)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	// A connection string with no explicit driver choice means Postgres.
	if viper.GetString("store.driver") == "" && cfg.DatabaseURL != "" {
		cfg.Driver = DriverPostgres
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFilesConfig loads blob storage configuration from Viper and
// environment variables.
func LoadFilesConfig() (*files.Config, error) {
	cfg := files.Config{
		BaseURL: viper.GetString("storage.base_url"),
		Token:   viper.GetString("storage.token"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("PENNYWISE_STORAGE_URL")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("PENNYWISE_STORAGE_TOKEN")
	}
	if d := viper.GetDuration("storage.timeout"); d > 0 {
		cfg.Timeout = d
	} else {
		cfg.Timeout = 30 * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UserID returns the configured account identity. Every store
// operation is scoped to it.
func UserID() (string, error) {
	if v := viper.GetString("user.id"); v != "" {
		return v, nil
	}
	if v := os.Getenv("PENNYWISE_USER_ID"); v != "" {
		return v, nil
	}
	return "", common.ErrNoUser
}
