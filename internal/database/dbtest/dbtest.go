// Package dbtest opens throwaway ledger databases for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dues-ledger/internal/config"
	"dues-ledger/internal/database"
	"dues-ledger/internal/logger"
)

// Config returns a configuration pointing at a fresh file under t.TempDir().
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Timezone: "UTC",
		Database: config.DatabaseConfig{
			Path:          filepath.Join(t.TempDir(), "ledger.db"),
			BusyTimeoutMS: 5000,
		},
	}
}

// Open returns a migrated database that is closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewConnection(Config(t), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
