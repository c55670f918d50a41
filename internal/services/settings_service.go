package services

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/logger"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

type SettingsService struct {
	db           *sql.DB
	settingsRepo repositories.SettingsRepository
	log          *logrus.Logger
}

func NewSettingsService(db *sql.DB, settingsRepo repositories.SettingsRepository, log *logrus.Logger) *SettingsService {
	return &SettingsService{
		db:           db,
		settingsRepo: settingsRepo,
		log:          log,
	}
}

// Get returns the saved settings, or the defaults when nothing has been
// saved or the stored row cannot be read.
func (s *SettingsService) Get(ctx context.Context) models.AppSettings {
	saved, err := s.settingsRepo.Get(ctx, s.db)
	if err != nil {
		logger.LogError(s.log, "settings", "Get", "falling back to defaults", nil, err)
		return models.DefaultSettings()
	}
	if saved == nil {
		return models.DefaultSettings()
	}
	return *saved
}

// Set replaces the settings wholesale.
func (s *SettingsService) Set(ctx context.Context, settings models.AppSettings) error {
	if err := validateStruct("save settings", settings); err != nil {
		return err
	}
	if err := s.settingsRepo.Put(ctx, s.db, &settings); err != nil {
		return err
	}
	s.log.WithField("highDueThreshold", settings.HighDueThreshold.String()).Info("Settings saved")
	return nil
}
