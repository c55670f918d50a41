package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

const defaultFollowUpNote = "Status updated"

// FollowUpService records an action against one consumer: the status change
// and the matching history entry are written together.
type FollowUpService struct {
	db           *sql.DB
	consumerRepo repositories.ConsumerRepository
	historyRepo  repositories.HistoryRepository
	log          *logrus.Logger
	now          func() time.Time
}

func NewFollowUpService(
	db *sql.DB,
	consumerRepo repositories.ConsumerRepository,
	historyRepo repositories.HistoryRepository,
	log *logrus.Logger,
) *FollowUpService {
	return &FollowUpService{
		db:           db,
		consumerRepo: consumerRepo,
		historyRepo:  historyRepo,
		log:          log,
		now:          time.Now,
	}
}

type FollowUpInput struct {
	ConsumerNo       string                `json:"consumerNo" validate:"required"`
	Status           models.ConsumerStatus `json:"status" validate:"required,consumer_status"`
	NextFollowUpDate string                `json:"nextFollowUpDate" validate:"omitempty,datetime=2006-01-02"`
	Note             string                `json:"note" validate:"max=2000"`
}

type FollowUpResult struct {
	Consumer *models.Consumer        `json:"consumer"`
	Entry    *models.FollowUpHistory `json:"entry,omitempty"`
}

// Record applies the new status and appends a history entry when a note was
// given or the status changed.
func (s *FollowUpService) Record(ctx context.Context, in FollowUpInput) (*FollowUpResult, error) {
	in.ConsumerNo = strings.TrimSpace(in.ConsumerNo)
	in.NextFollowUpDate = strings.TrimSpace(in.NextFollowUpDate)
	if err := validateStruct("record follow-up", in); err != nil {
		return nil, err
	}
	if in.Status.RequiresFollowUpDate() && in.NextFollowUpDate == "" {
		return nil, &ValidationError{Op: "record follow-up", Msg: "a follow-up date is required for " + string(in.Status)}
	}

	result := &FollowUpResult{}
	err := database.RunInTx(ctx, s.db, database.ReadWrite, func(tx *sql.Tx) error {
		c, err := s.consumerRepo.Get(ctx, tx, in.ConsumerNo)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrConsumerNotFound
		}

		now := s.now()
		previous := c.Status
		c.Status = in.Status
		c.NextFollowUpDate = in.NextFollowUpDate
		c.NormalizeFollowUp()
		c.UpdatedAt = now
		if err := s.consumerRepo.Put(ctx, tx, c); err != nil {
			return err
		}
		result.Consumer = c

		note := strings.TrimSpace(in.Note)
		if note == "" && previous == in.Status {
			return nil
		}
		if note == "" {
			note = defaultFollowUpNote
		}

		entry := &models.FollowUpHistory{
			ConsumerNo: c.ConsumerNo,
			Note:       note,
			Status:     c.Status,
			Timestamp:  now,
		}
		if err := s.historyRepo.Add(ctx, tx, entry); err != nil {
			return err
		}
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"consumerNo": in.ConsumerNo,
		"status":     in.Status,
	}).Info("Follow-up recorded")
	return result, nil
}
