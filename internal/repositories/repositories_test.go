package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dues-ledger/internal/database/dbtest"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
)

func sampleConsumer(no string) *models.Consumer {
	return &models.Consumer{
		ConsumerNo:     no,
		Name:           "Asha Patil",
		Address:        "12 Station Road",
		Mobile:         "9800000000",
		TotalDue:       decimal.RequireFromString("6120.50"),
		BillDueDate:    "2026-10-01",
		AgeInDays:      45,
		ClosingBalance: decimal.NewFromInt(6000),
		SubCategory:    "Residential",
		MeterNumber:    "M-77",
		Status:         models.StatusPending,
		UpdatedAt:      time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestConsumerRepository_PutGetRoundTrip(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewConsumerRepository()
	ctx := context.Background()

	in := sampleConsumer("490010001")
	in.Status = models.StatusCallLater
	in.NextFollowUpDate = "2026-10-20"
	in.TdPdDate = "2026-01-05"
	require.NoError(t, repo.Put(ctx, db, in))

	got, err := repo.Get(ctx, db, "490010001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.Name, got.Name)
	assert.True(t, in.TotalDue.Equal(got.TotalDue))
	assert.True(t, in.ClosingBalance.Equal(got.ClosingBalance))
	assert.Equal(t, 45, got.AgeInDays)
	assert.Equal(t, models.StatusCallLater, got.Status)
	assert.Equal(t, "2026-10-20", got.NextFollowUpDate)
	assert.Equal(t, "2026-01-05", got.TdPdDate)
	assert.True(t, in.UpdatedAt.Equal(got.UpdatedAt))
}

func TestConsumerRepository_GetMissingIsNotAnError(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewConsumerRepository()

	got, err := repo.Get(context.Background(), db, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConsumerRepository_PutUpsertsByKey(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewConsumerRepository()
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, db, sampleConsumer("1")))
	require.NoError(t, repo.Put(ctx, db, sampleConsumer("2")))

	changed := sampleConsumer("1")
	changed.Name = "Renamed"
	changed.Status = models.StatusPaid
	require.NoError(t, repo.Put(ctx, db, changed))

	n, err := repo.Count(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.GetAll(ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ConsumerNo, "upsert keeps the original position")
	assert.Equal(t, "Renamed", all[0].Name)
}

func TestConsumerRepository_PutRejectsEmptyKey(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewConsumerRepository()
	assert.Error(t, repo.Put(context.Background(), db, sampleConsumer("")))
}

func TestConsumerRepository_IndexedLookups(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewConsumerRepository()
	ctx := context.Background()

	a := sampleConsumer("A")
	a.Status = models.StatusCallLater
	a.NextFollowUpDate = "2026-10-18"
	b := sampleConsumer("B")
	b.Status = models.StatusPaid
	c := sampleConsumer("C")
	for _, x := range []*models.Consumer{a, b, c} {
		require.NoError(t, repo.Put(ctx, db, x))
	}

	paid, err := repo.ListByStatus(ctx, db, models.StatusPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "B", paid[0].ConsumerNo)

	due, err := repo.ListByFollowUpDate(ctx, db, "2026-10-18")
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "A", due[0].ConsumerNo)

	require.NoError(t, repo.Clear(ctx, db))
	n, err := repo.Count(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHistoryRepository_AddAssignsIncreasingIDs(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewHistoryRepository()
	ctx := context.Background()

	ts := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	first := &models.FollowUpHistory{ConsumerNo: "1", Note: "no answer", Status: models.StatusNotReachable, Timestamp: ts}
	second := &models.FollowUpHistory{ConsumerNo: "1", Note: "no answer", Status: models.StatusNotReachable, Timestamp: ts}
	require.NoError(t, repo.Add(ctx, db, first))
	require.NoError(t, repo.Add(ctx, db, second))

	assert.Greater(t, second.ID, first.ID)

	other := &models.FollowUpHistory{ConsumerNo: "2", Note: "paid", Status: models.StatusPaid, Timestamp: ts}
	require.NoError(t, repo.Add(ctx, db, other))

	entries, err := repo.ListByConsumer(ctx, db, "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.True(t, ts.Equal(entries[0].Timestamp))

	all, err := repo.GetAll(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistoryRepository_PutKeepsExplicitID(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewHistoryRepository()
	ctx := context.Background()

	h := &models.FollowUpHistory{ID: 42, ConsumerNo: "9", Note: "restored", Status: models.StatusPending, Timestamp: time.Now()}
	require.NoError(t, repo.Put(ctx, db, h))

	next := &models.FollowUpHistory{ConsumerNo: "9", Note: "new", Status: models.StatusPending, Timestamp: time.Now()}
	require.NoError(t, repo.Add(ctx, db, next))
	assert.Greater(t, next.ID, int64(42))

	fresh := &models.FollowUpHistory{ConsumerNo: "9", Note: "no id", Status: models.StatusPending, Timestamp: time.Now()}
	require.NoError(t, repo.Put(ctx, db, fresh))
	assert.Greater(t, fresh.ID, next.ID)
}

func TestSettingsRepository_AbsentThenPut(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewSettingsRepository()
	ctx := context.Background()

	got, err := repo.Get(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := models.DefaultSettings()
	s.HighDueThreshold = decimal.NewFromInt(7500)
	s.SMSTemplate = "Pay {amount}"
	require.NoError(t, repo.Put(ctx, db, &s))

	got, err = repo.Get(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pay {amount}", got.SMSTemplate)
	assert.True(t, got.HighDueThreshold.Equal(decimal.NewFromInt(7500)))

	require.NoError(t, repo.Clear(ctx, db))
	got, err = repo.Get(ctx, db)
	require.NoError(t, err)
	assert.Nil(t, got)
}
