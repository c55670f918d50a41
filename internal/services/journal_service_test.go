package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dues-ledger/internal/models"
)

func TestJournal_NewestFirstWithStableTies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := fixedNow.Add(-2 * time.Hour)
	t2 := fixedNow.Add(-1 * time.Hour)

	add := func(note string, ts time.Time) int64 {
		id, err := f.journal.Append(ctx, &models.FollowUpHistory{
			ConsumerNo: "1", Note: note, Status: models.StatusNotReachable, Timestamp: ts,
		})
		require.NoError(t, err)
		return id
	}

	first := add("first", t1)
	second := add("second", t2)
	add("tie-a", t1)
	add("other consumer", t2)

	entries, err := f.journal.ListForConsumer(ctx, "1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, second, entries[0].ID)
	assert.Equal(t, first, entries[1].ID, "equal timestamps keep insertion order")
	assert.Equal(t, "tie-a", entries[2].Note)

	all, err := f.journal.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestJournal_AppendAllowsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := func() *models.FollowUpHistory {
		return &models.FollowUpHistory{ConsumerNo: "1", Note: "same", Status: models.StatusPending, Timestamp: fixedNow}
	}
	a, err := f.journal.Append(ctx, entry())
	require.NoError(t, err)
	b, err := f.journal.Append(ctx, entry())
	require.NoError(t, err)
	assert.Greater(t, b, a)
}

func TestJournal_AppendRequiresConsumer(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.Append(context.Background(), &models.FollowUpHistory{Note: "orphan"})
	assert.True(t, IsValidation(err))
}
