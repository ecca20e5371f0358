package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoreConfigDefaultsToSQLite(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.NotEmpty(t, cfg.SQLitePath)
}

func TestLoadStoreConfigPrefersViperDriver(t *testing.T) {
	viper.Reset()
	viper.Set("store.driver", "postgres")
	viper.Set("store.database_url", "postgres://localhost/pennywise")
	defer viper.Reset()

	cfg, err := LoadStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "postgres://localhost/pennywise", cfg.DatabaseURL)
}

func TestLoadStoreConfigInfersPostgresFromDatabaseURL(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "postgres://localhost/pennywise")

	cfg, err := LoadStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
}

func TestLoadStoreConfigRejectsUnknownDriver(t *testing.T) {
	viper.Reset()
	viper.Set("store.driver", "oracle")
	defer viper.Reset()

	_, err := LoadStoreConfig()
	require.Error(t, err)
}

func TestUserIDFallsBackToEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("PENNYWISE_USER_ID", "user-42")

	id, err := UserID()
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestUserIDMissing(t *testing.T) {
	viper.Reset()
	t.Setenv("PENNYWISE_USER_ID", "")

	_, err := UserID()
	require.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("PENNYWISE_TEST_DIR", "/tmp/pw")
	assert.Equal(t, "/tmp/pw/data", ExpandPath("$PENNYWISE_TEST_DIR/data"))
	assert.Equal(t, "", ExpandPath(""))
}
