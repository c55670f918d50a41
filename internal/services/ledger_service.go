package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

type LedgerService struct {
	db           *sql.DB
	consumerRepo repositories.ConsumerRepository
	log          *logrus.Logger
	now          func() time.Time
}

func NewLedgerService(db *sql.DB, consumerRepo repositories.ConsumerRepository, log *logrus.Logger) *LedgerService {
	return &LedgerService{
		db:           db,
		consumerRepo: consumerRepo,
		log:          log,
		now:          time.Now,
	}
}

func (s *LedgerService) GetAll(ctx context.Context) ([]*models.Consumer, error) {
	consumers, err := s.consumerRepo.GetAll(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumers: %w", err)
	}
	return consumers, nil
}

// Get returns nil, nil when the consumer does not exist.
func (s *LedgerService) Get(ctx context.Context, consumerNo string) (*models.Consumer, error) {
	c, err := s.consumerRepo.Get(ctx, s.db, consumerNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer %s: %w", consumerNo, err)
	}
	return c, nil
}

func (s *LedgerService) Count(ctx context.Context) (int, error) {
	return s.consumerRepo.Count(ctx, s.db)
}

func (s *LedgerService) ListByStatus(ctx context.Context, status models.ConsumerStatus) ([]*models.Consumer, error) {
	consumers, err := s.consumerRepo.ListByStatus(ctx, s.db, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumers with status %s: %w", status, err)
	}
	return consumers, nil
}

// ListFollowUpsOn returns consumers whose callback is scheduled for day.
func (s *LedgerService) ListFollowUpsOn(ctx context.Context, day string) ([]*models.Consumer, error) {
	consumers, err := s.consumerRepo.ListByFollowUpDate(ctx, s.db, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups for %s: %w", day, err)
	}
	return consumers, nil
}

// BulkReplace upserts every record in one transaction. If any write fails
// none of the batch is kept. With clearExisting the collection is emptied
// first, inside the same transaction.
func (s *LedgerService) BulkReplace(ctx context.Context, records []*models.Consumer, clearExisting bool) error {
	err := database.RunInTx(ctx, s.db, database.ReadWrite, func(tx *sql.Tx) error {
		if clearExisting {
			if err := s.consumerRepo.Clear(ctx, tx); err != nil {
				return err
			}
		}

		for _, c := range records {
			c.NormalizeFollowUp()
			if err := s.consumerRepo.Put(ctx, tx, c); err != nil {
				return fmt.Errorf("failed to write consumer %s: %w", c.ConsumerNo, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bulk replace failed: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"records": len(records),
		"cleared": clearExisting,
	}).Info("Consumer ledger updated")
	return nil
}

// Update writes a single consumer, clearing the follow-up date when the
// status does not call for one.
func (s *LedgerService) Update(ctx context.Context, c *models.Consumer) error {
	c.NormalizeFollowUp()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = s.now()
	}
	if err := s.consumerRepo.Put(ctx, s.db, c); err != nil {
		return fmt.Errorf("failed to update consumer %s: %w", c.ConsumerNo, err)
	}
	return nil
}

// Purge deletes every consumer. The count is checked inside the transaction,
// which is rolled back if anything remains, and checked again after commit.
// History and settings are not touched.
func (s *LedgerService) Purge(ctx context.Context) error {
	err := database.RunInTx(ctx, s.db, database.ReadWrite, func(tx *sql.Tx) error {
		if err := s.consumerRepo.Clear(ctx, tx); err != nil {
			return err
		}

		residual, err := s.consumerRepo.Count(ctx, tx)
		if err != nil {
			return err
		}
		if residual != 0 {
			return &IntegrityError{Op: "purge", Stage: StageInTransaction, Residual: residual}
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("Consumer purge aborted")
		return err
	}

	residual, err := s.consumerRepo.Count(ctx, s.db)
	if err != nil {
		return fmt.Errorf("failed to verify purge: %w", err)
	}
	if residual != 0 {
		err := &IntegrityError{Op: "purge", Stage: StagePostCommit, Residual: residual}
		s.log.WithError(err).Error("Consumer purge left records behind")
		return err
	}

	s.log.Warn("Consumer ledger purged")
	return nil
}
