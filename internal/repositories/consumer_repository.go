package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dues-ledger/internal/database"
	"dues-ledger/internal/models"
)

type ConsumerRepository interface {
	Get(ctx context.Context, q database.Querier, consumerNo string) (*models.Consumer, error)
	GetAll(ctx context.Context, q database.Querier) ([]*models.Consumer, error)
	ListByStatus(ctx context.Context, q database.Querier, status models.ConsumerStatus) ([]*models.Consumer, error)
	ListByFollowUpDate(ctx context.Context, q database.Querier, date string) ([]*models.Consumer, error)
	Put(ctx context.Context, q database.Querier, c *models.Consumer) error
	Count(ctx context.Context, q database.Querier) (int, error)
	Clear(ctx context.Context, q database.Querier) error
}

type consumerRepository struct{}

func NewConsumerRepository() ConsumerRepository {
	return &consumerRepository{}
}

const consumerColumns = `
	consumer_no, name, address, mobile, total_due, bill_due_date,
	age_in_days, last_receipt_date, closing_balance, sub_category,
	meter_number, remark, td_pd_date, status, next_follow_up_date, updated_at`

// Get returns nil without an error when the consumer does not exist.
func (r *consumerRepository) Get(ctx context.Context, q database.Querier, consumerNo string) (*models.Consumer, error) {
	query := `SELECT ` + consumerColumns + ` FROM consumers WHERE consumer_no = ?`

	c, err := scanConsumer(q.QueryRowContext(ctx, query, consumerNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *consumerRepository) GetAll(ctx context.Context, q database.Querier) ([]*models.Consumer, error) {
	query := `SELECT ` + consumerColumns + ` FROM consumers ORDER BY rowid`
	return r.list(ctx, q, query)
}

func (r *consumerRepository) ListByStatus(ctx context.Context, q database.Querier, status models.ConsumerStatus) ([]*models.Consumer, error) {
	query := `SELECT ` + consumerColumns + ` FROM consumers WHERE status = ? ORDER BY rowid`
	return r.list(ctx, q, query, string(status))
}

func (r *consumerRepository) ListByFollowUpDate(ctx context.Context, q database.Querier, date string) ([]*models.Consumer, error) {
	query := `SELECT ` + consumerColumns + ` FROM consumers WHERE next_follow_up_date = ? ORDER BY rowid`
	return r.list(ctx, q, query, date)
}

// Put inserts the consumer or replaces every field of the existing row with
// the same consumer number.
func (r *consumerRepository) Put(ctx context.Context, q database.Querier, c *models.Consumer) error {
	if c.ConsumerNo == "" {
		return errors.New("consumer number is required")
	}

	query := `
		INSERT INTO consumers (` + consumerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(consumer_no) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			mobile = excluded.mobile,
			total_due = excluded.total_due,
			bill_due_date = excluded.bill_due_date,
			age_in_days = excluded.age_in_days,
			last_receipt_date = excluded.last_receipt_date,
			closing_balance = excluded.closing_balance,
			sub_category = excluded.sub_category,
			meter_number = excluded.meter_number,
			remark = excluded.remark,
			td_pd_date = excluded.td_pd_date,
			status = excluded.status,
			next_follow_up_date = excluded.next_follow_up_date,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		c.ConsumerNo,
		c.Name,
		c.Address,
		c.Mobile,
		c.TotalDue,
		c.BillDueDate,
		c.AgeInDays,
		c.LastReceiptDate,
		c.ClosingBalance,
		c.SubCategory,
		c.MeterNumber,
		c.Remark,
		nullString(c.TdPdDate),
		string(c.Status),
		nullString(c.NextFollowUpDate),
		c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put consumer %s: %w", c.ConsumerNo, err)
	}
	return nil
}

func (r *consumerRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	return database.Count(ctx, q, database.Consumers)
}

func (r *consumerRepository) Clear(ctx context.Context, q database.Querier) error {
	return database.Clear(ctx, q, database.Consumers)
}

func (r *consumerRepository) list(ctx context.Context, q database.Querier, query string, args ...any) ([]*models.Consumer, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consumers := []*models.Consumer{}
	for rows.Next() {
		c, err := scanConsumer(rows)
		if err != nil {
			return nil, err
		}
		consumers = append(consumers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return consumers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsumer(row rowScanner) (*models.Consumer, error) {
	c := &models.Consumer{}
	var status string
	var tdPdDate, nextFollowUp sql.NullString

	err := row.Scan(
		&c.ConsumerNo,
		&c.Name,
		&c.Address,
		&c.Mobile,
		&c.TotalDue,
		&c.BillDueDate,
		&c.AgeInDays,
		&c.LastReceiptDate,
		&c.ClosingBalance,
		&c.SubCategory,
		&c.MeterNumber,
		&c.Remark,
		&tdPdDate,
		&status,
		&nextFollowUp,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = models.ConsumerStatus(status)
	c.TdPdDate = tdPdDate.String
	c.NextFollowUpDate = nextFollowUp.String
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
