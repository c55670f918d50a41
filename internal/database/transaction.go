package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// RunInTx runs fn inside one transaction. The transaction commits only when
// fn returns nil; an error or a panic from fn rolls everything back.
func RunInTx(ctx context.Context, db *sql.DB, mode Mode, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: mode == ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Collection names one of the independent record collections.
type Collection string

const (
	Consumers Collection = "consumers"
	History   Collection = "history"
	Settings  Collection = "settings"
)

var collectionTables = map[Collection]string{
	Consumers: "consumers",
	History:   "follow_up_history",
	Settings:  "settings",
}

// Table returns the backing table for a collection.
func (c Collection) Table() (string, error) {
	table, ok := collectionTables[c]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", string(c))
	}
	return table, nil
}

func Count(ctx context.Context, q Querier, c Collection) (int, error) {
	table, err := c.Table()
	if err != nil {
		return 0, err
	}

	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c, err)
	}
	return n, nil
}

// Clear removes every record of a collection. Autoincrement counters are
// left alone so history ids keep increasing across clears.
func Clear(ctx context.Context, q Querier, c Collection) error {
	table, err := c.Table()
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c, err)
	}
	return nil
}
