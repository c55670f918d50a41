package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

// JournalService records follow-up actions. Entries are append-only.
type JournalService struct {
	db          *sql.DB
	historyRepo repositories.HistoryRepository
	log         *logrus.Logger
	now         func() time.Time
}

func NewJournalService(db *sql.DB, historyRepo repositories.HistoryRepository, log *logrus.Logger) *JournalService {
	return &JournalService{
		db:          db,
		historyRepo: historyRepo,
		log:         log,
		now:         time.Now,
	}
}

// Append stores the entry and returns its id. Identical entries are allowed.
func (s *JournalService) Append(ctx context.Context, entry *models.FollowUpHistory) (int64, error) {
	if strings.TrimSpace(entry.ConsumerNo) == "" {
		return 0, &ValidationError{Op: "append history", Msg: "consumer number is required"}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	if err := s.historyRepo.Add(ctx, s.db, entry); err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// ListForConsumer returns the consumer's entries, newest first. Entries with
// the same timestamp stay in the order they were added.
func (s *JournalService) ListForConsumer(ctx context.Context, consumerNo string) ([]*models.FollowUpHistory, error) {
	entries, err := s.historyRepo.ListByConsumer(ctx, s.db, consumerNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for %s: %w", consumerNo, err)
	}
	SortNewestFirst(entries)
	return entries, nil
}

func (s *JournalService) ListAll(ctx context.Context) ([]*models.FollowUpHistory, error) {
	entries, err := s.historyRepo.GetAll(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// SortNewestFirst orders id-ordered entries by timestamp, descending.
func SortNewestFirst(entries []*models.FollowUpHistory) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
