package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"dues-ledger/internal/config"
)

// NewConnection opens the ledger file, applies pending migrations and returns
// the owned handle. The caller closes it.
func NewConnection(cfg *config.Config, log *logrus.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	if err := Migrate(cfg); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	// One connection: every statement and transaction is serialized
	// through a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	log.WithField("path", cfg.Database.Path).Info("Successfully opened ledger database")
	return db, nil
}
