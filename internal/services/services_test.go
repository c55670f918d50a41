package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dues-ledger/internal/database"
	"dues-ledger/internal/database/dbtest"
	"dues-ledger/internal/logger"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

var fixedNow = time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	db       *sql.DB
	ledger   *LedgerService
	journal  *JournalService
	settings *SettingsService
	imports  *ImportService
	backup   *BackupService
	followUp *FollowUpService
	query    *QueryService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, repositories.NewConsumerRepository())
}

func newFixtureWith(t *testing.T, consumerRepo repositories.ConsumerRepository) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	log := logger.Discard()
	historyRepo := repositories.NewHistoryRepository()
	settingsRepo := repositories.NewSettingsRepository()

	f := &fixture{db: db}
	f.ledger = NewLedgerService(db, consumerRepo, log)
	f.ledger.now = clock
	f.journal = NewJournalService(db, historyRepo, log)
	f.journal.now = clock
	f.settings = NewSettingsService(db, settingsRepo, log)
	f.imports = NewImportService(f.ledger, log)
	f.imports.now = clock
	f.backup = NewBackupService(db, historyRepo, settingsRepo, log)
	f.backup.now = clock
	f.followUp = NewFollowUpService(db, consumerRepo, historyRepo, log)
	f.followUp.now = clock
	f.query = NewQueryService(f.ledger, f.journal, f.settings, time.UTC)
	f.query.now = clock
	return f
}

func newConsumer(no string, due int64) *models.Consumer {
	return &models.Consumer{
		ConsumerNo: no,
		Name:       "Consumer " + no,
		Mobile:     "9800000000",
		TotalDue:   decimal.NewFromInt(due),
		Status:     models.StatusPending,
		UpdatedAt:  fixedNow.Add(-24 * time.Hour),
	}
}

func seed(t *testing.T, f *fixture, consumers ...*models.Consumer) {
	t.Helper()
	require.NoError(t, f.ledger.BulkReplace(context.Background(), consumers, false))
}

// failingPutRepo fails the Nth Put call.
type failingPutRepo struct {
	repositories.ConsumerRepository
	failOn int
	calls  int
}

func (r *failingPutRepo) Put(ctx context.Context, q database.Querier, c *models.Consumer) error {
	r.calls++
	if r.calls == r.failOn {
		return errors.New("disk full")
	}
	return r.ConsumerRepository.Put(ctx, q, c)
}

// residualClearRepo clears the collection and then writes one record back.
type residualClearRepo struct {
	repositories.ConsumerRepository
}

func (r *residualClearRepo) Clear(ctx context.Context, q database.Querier) error {
	if err := r.ConsumerRepository.Clear(ctx, q); err != nil {
		return err
	}
	return r.ConsumerRepository.Put(ctx, q, newConsumer("residual", 1))
}

// lyingCountRepo skips Clear and reports zero for the first Count, so only
// the post-commit check can notice.
type lyingCountRepo struct {
	repositories.ConsumerRepository
	counts int
}

func (r *lyingCountRepo) Clear(ctx context.Context, q database.Querier) error {
	return nil
}

func (r *lyingCountRepo) Count(ctx context.Context, q database.Querier) (int, error) {
	r.counts++
	if r.counts == 1 {
		return 0, nil
	}
	return r.ConsumerRepository.Count(ctx, q)
}
