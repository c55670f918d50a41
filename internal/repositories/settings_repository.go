package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
)

// SettingsKey is the key of the single settings row
const SettingsKey = "appSettings"

type SettingsRepository interface {
	Get(ctx context.Context, q database.Querier) (*models.AppSettings, error)
	Put(ctx context.Context, q database.Querier, s *models.AppSettings) error
	Clear(ctx context.Context, q database.Querier) error
}

type settingsRepository struct{}

func NewSettingsRepository() SettingsRepository {
	return &settingsRepository{}
}

// Get returns nil without an error when no settings have been saved.
func (r *settingsRepository) Get(ctx context.Context, q database.Querier) (*models.AppSettings, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s := &models.AppSettings{}
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

func (r *settingsRepository) Put(ctx context.Context, q database.Querier, s *models.AppSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := q.ExecContext(ctx, query, SettingsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to put settings: %w", err)
	}
	return nil
}

func (r *settingsRepository) Clear(ctx context.Context, q database.Querier) error {
	return database.Clear(ctx, q, database.Settings)
}
