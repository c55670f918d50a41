package repositories

import (
	"context"
	"fmt"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
)

// HistoryRepository stores follow-up entries. There is deliberately no
// update or per-entry delete: entries only disappear when the whole
// collection is cleared.
type HistoryRepository interface {
	Add(ctx context.Context, q database.Querier, h *models.FollowUpHistory) error
	Put(ctx context.Context, q database.Querier, h *models.FollowUpHistory) error
	GetAll(ctx context.Context, q database.Querier) ([]*models.FollowUpHistory, error)
	ListByConsumer(ctx context.Context, q database.Querier, consumerNo string) ([]*models.FollowUpHistory, error)
	Count(ctx context.Context, q database.Querier) (int, error)
	Clear(ctx context.Context, q database.Querier) error
}

type historyRepository struct{}

func NewHistoryRepository() HistoryRepository {
	return &historyRepository{}
}

// Add inserts the entry and sets its store-assigned id.
func (r *historyRepository) Add(ctx context.Context, q database.Querier, h *models.FollowUpHistory) error {
	query := `
		INSERT INTO follow_up_history (consumer_no, note, status, timestamp)
		VALUES (?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		h.ConsumerNo,
		h.Note,
		string(h.Status),
		h.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add history for %s: %w", h.ConsumerNo, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

// Put writes an entry with an explicit id, used when restoring a backup.
func (r *historyRepository) Put(ctx context.Context, q database.Querier, h *models.FollowUpHistory) error {
	if h.ID <= 0 {
		return r.Add(ctx, q, h)
	}

	query := `
		INSERT OR REPLACE INTO follow_up_history (id, consumer_no, note, status, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		h.ID,
		h.ConsumerNo,
		h.Note,
		string(h.Status),
		h.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put history %d: %w", h.ID, err)
	}
	return nil
}

func (r *historyRepository) GetAll(ctx context.Context, q database.Querier) ([]*models.FollowUpHistory, error) {
	query := `
		SELECT id, consumer_no, note, status, timestamp
		FROM follow_up_history
		ORDER BY id
	`
	return r.list(ctx, q, query)
}

// ListByConsumer returns entries in insertion order; callers sort by time.
func (r *historyRepository) ListByConsumer(ctx context.Context, q database.Querier, consumerNo string) ([]*models.FollowUpHistory, error) {
	query := `
		SELECT id, consumer_no, note, status, timestamp
		FROM follow_up_history
		WHERE consumer_no = ?
		ORDER BY id
	`
	return r.list(ctx, q, query, consumerNo)
}

func (r *historyRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return database.Count(ctx, q, database.History)
}

func (r *historyRepository) Clear(ctx context.Context, q database.Querier) error {
	return database.Clear(ctx, q, database.History)
}

func (r *historyRepository) list(ctx context.Context, q database.Querier, query string, args ...any) ([]*models.FollowUpHistory, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.FollowUpHistory{}
	for rows.Next() {
		h := &models.FollowUpHistory{}
		var status string
		err := rows.Scan(
			&h.ID,
			&h.ConsumerNo,
			&h.Note,
			&status,
			&h.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		h.Status = models.ConsumerStatus(status)
		entries = append(entries, h)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
