package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

// BackupService exports and restores the follow-up history and settings.
// Consumers are never part of a backup.
type BackupService struct {
	db           *sql.DB
	historyRepo  repositories.HistoryRepository
	settingsRepo repositories.SettingsRepository
	log          *logrus.Logger
	now          func() time.Time
}

func NewBackupService(
	db *sql.DB,
	historyRepo repositories.HistoryRepository,
	settingsRepo repositories.SettingsRepository,
	log *logrus.Logger,
) *BackupService {
	return &BackupService{
		db:           db,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		log:          log,
		now:          time.Now,
	}
}

type RestoreResult struct {
	HistoryCount     int  `json:"history_count"`
	SettingsRestored bool `json:"settings_restored"`
}

func (s *BackupService) Export(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{
		History: []models.FollowUpHistory{},
		Meta: models.SnapshotMeta{
			Version: models.SnapshotVersion,
			Type:    models.SnapshotTypePartial,
			Date:    s.now().UTC().Format(time.RFC3339),
		},
	}

	err := database.RunInTx(ctx, s.db, database.ReadOnly, func(tx *sql.Tx) error {
		entries, err := s.historyRepo.GetAll(ctx, tx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			snapshot.History = append(snapshot.History, *e)
		}

		settings, err := s.settingsRepo.Get(ctx, tx)
		if err != nil {
			return err
		}
		if settings == nil {
			defaults := models.DefaultSettings()
			settings = &defaults
		}
		snapshot.Settings = settings
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export backup: %w", err)
	}
	return snapshot, nil
}

func (s *BackupService) ExportJSON(ctx context.Context) ([]byte, error) {
	snapshot, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snapshot, "", "  ")
}

// Restore replaces history and settings with the snapshot contents. The
// snapshot is fully validated before anything is cleared.
func (s *BackupService) Restore(ctx context.Context, data []byte) (*RestoreResult, error) {
	history, settings, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	err = database.RunInTx(ctx, s.db, database.ReadWrite, func(tx *sql.Tx) error {
		if err := s.historyRepo.Clear(ctx, tx); err != nil {
			return err
		}
		if err := s.settingsRepo.Clear(ctx, tx); err != nil {
			return err
		}

		// Entries with an id go first so fresh ids never take one the
		// snapshot still has to write.
		for i := range history {
			if history[i].ID <= 0 {
				continue
			}
			if err := s.historyRepo.Put(ctx, tx, &history[i]); err != nil {
				return err
			}
		}
		for i := range history {
			if history[i].ID > 0 {
				continue
			}
			if err := s.historyRepo.Add(ctx, tx, &history[i]); err != nil {
				return err
			}
		}

		if settings != nil {
			return s.settingsRepo.Put(ctx, tx, settings)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restore backup: %w", err)
	}

	result := &RestoreResult{HistoryCount: len(history), SettingsRestored: settings != nil}
	s.log.WithFields(logrus.Fields{
		"history":  result.HistoryCount,
		"settings": result.SettingsRestored,
	}).Warn("Backup restored")
	return result, nil
}

func decodeSnapshot(data []byte) ([]models.FollowUpHistory, *models.AppSettings, error) {
	invalid := func(msg string) error {
		return &ValidationError{Op: "restore", Msg: msg}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, invalid(fmt.Sprintf("backup is not valid JSON: %v", err))
	}

	raw, ok := doc["history"]
	if !ok {
		return nil, nil, invalid("backup has no history")
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, invalid("backup history is not a list")
	}

	var history []models.FollowUpHistory
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, nil, invalid(fmt.Sprintf("backup history is malformed: %v", err))
	}

	seen := make(map[int64]bool, len(history))
	for i, entry := range history {
		if err := validateStruct(fmt.Sprintf("restore history[%d]", i), entry); err != nil {
			return nil, nil, err
		}
		if entry.Timestamp.IsZero() {
			return nil, nil, invalid(fmt.Sprintf("history entry %d has no timestamp", i))
		}
		if entry.ID <= 0 {
			continue
		}
		if seen[entry.ID] {
			return nil, nil, invalid(fmt.Sprintf("history id %d appears more than once", entry.ID))
		}
		seen[entry.ID] = true
	}

	var settings *models.AppSettings
	if rawSettings, ok := doc["settings"]; ok && !bytes.Equal(bytes.TrimSpace(rawSettings), []byte("null")) {
		settings = &models.AppSettings{}
		if err := json.Unmarshal(rawSettings, settings); err != nil {
			return nil, nil, invalid(fmt.Sprintf("backup settings are malformed: %v", err))
		}
		if err := validateStruct("restore", *settings); err != nil {
			return nil, nil, err
		}
	}

	return history, settings, nil
}
