package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dues-ledger/internal/models"
)

func appendNotes(t *testing.T, f *fixture, notes ...string) {
	t.Helper()
	for _, note := range notes {
		_, err := f.journal.Append(context.Background(), &models.FollowUpHistory{
			ConsumerNo: "1", Note: note, Status: models.StatusNotReachable, Timestamp: fixedNow,
		})
		require.NoError(t, err)
	}
}

func TestBackup_ExportShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, newConsumer("1", 100))
	appendNotes(t, f, "first", "second")

	snapshot, err := f.backup.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.SnapshotVersion, snapshot.Meta.Version)
	assert.Equal(t, models.SnapshotTypePartial, snapshot.Meta.Type)
	assert.Equal(t, "2026-10-18T10:30:00Z", snapshot.Meta.Date)
	require.Len(t, snapshot.History, 2)
	assert.Equal(t, "first", snapshot.History[0].Note)
	require.NotNil(t, snapshot.Settings)
	assert.Equal(t, models.DefaultSettings().SMSTemplate, snapshot.Settings.SMSTemplate)

	raw, err := f.backup.ExportJSON(ctx)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "history")
	assert.Contains(t, doc, "settings")
	assert.Contains(t, doc, "meta")
	assert.NotContains(t, doc, "consumers")
}

func TestBackup_RestoreReplacesHistoryAndSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed(t, f, newConsumer("1", 100), newConsumer("2", 200))
	appendNotes(t, f, "old-a", "old-b")

	snapshot := `{
		"history": [
			{"id": 7, "consumerNo": "2", "note": "restored", "status": "Paid", "timestamp": "2026-09-01T08:00:00Z"},
			{"consumerNo": "2", "note": "no id", "status": "Pending", "timestamp": "2026-09-02T08:00:00Z"}
		],
		"settings": {"smsTemplate": "Hi {name}", "whatsappTemplate": "Yo {name}", "highDueThreshold": 2500},
		"meta": {"version": 1, "type": "MRA_BACKUP_PARTIAL", "date": "2026-09-03T00:00:00Z"}
	}`

	result, err := f.backup.Restore(ctx, []byte(snapshot))
	require.NoError(t, err)
	assert.Equal(t, 2, result.HistoryCount)
	assert.True(t, result.SettingsRestored)

	all, err := f.journal.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(7), all[0].ID)
	assert.Equal(t, "restored", all[0].Note)
	assert.Greater(t, all[1].ID, int64(7))
	assert.Equal(t, "no id", all[1].Note)

	settings := f.settings.Get(ctx)
	assert.Equal(t, "Hi {name}", settings.SMSTemplate)
	assert.True(t, settings.HighDueThreshold.Equal(decimal.NewFromInt(2500)))

	n, err := f.ledger.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "consumers are not part of a backup")
}

func TestBackup_RestoreWithoutSettingsFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	custom := models.DefaultSettings()
	custom.SMSTemplate = "custom"
	require.NoError(t, f.settings.Set(ctx, custom))

	_, err := f.backup.Restore(ctx, []byte(`{"history": []}`))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), f.settings.Get(ctx))
}

func TestBackup_RestoreRejectsBadSnapshotsUntouched(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"history": [`,
		"missing history":   `{"settings": {"smsTemplate": "x"}}`,
		"history not array": `{"history": {"id": 1}}`,
		"history null":      `{"history": null}`,
		"bad entry":         `{"history": [{"id": "seven"}]}`,
		"bad settings":      `{"history": [], "settings": {"highDueThreshold": -5}}`,
		"null entry":        `{"history": [null]}`,
		"empty entry":       `{"history": [{}]}`,
		"unknown status":    `{"history": [{"consumerNo": "1", "status": "Moved", "timestamp": "2026-09-01T08:00:00Z"}]}`,
		"no timestamp":      `{"history": [{"consumerNo": "1", "status": "Paid"}]}`,
		"duplicate ids": `{"history": [
			{"id": 3, "consumerNo": "1", "status": "Paid", "timestamp": "2026-09-01T08:00:00Z"},
			{"id": 3, "consumerNo": "2", "status": "Pending", "timestamp": "2026-09-02T08:00:00Z"}
		]}`,
	}

	for name, snapshot := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			appendNotes(t, f, "keep-me")
			custom := models.DefaultSettings()
			custom.SMSTemplate = "custom"
			require.NoError(t, f.settings.Set(ctx, custom))

			_, err := f.backup.Restore(ctx, []byte(snapshot))
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			all, err := f.journal.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "keep-me", all[0].Note)
			assert.Equal(t, "custom", f.settings.Get(ctx).SMSTemplate)
		})
	}
}

func TestBackup_ExportRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appendNotes(t, f, "a", "b", "c")

	raw, err := f.backup.ExportJSON(ctx)
	require.NoError(t, err)
	before, err := f.journal.ListAll(ctx)
	require.NoError(t, err)

	appendNotes(t, f, "after backup")

	_, err = f.backup.Restore(ctx, raw)
	require.NoError(t, err)

	after, err := f.journal.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Note, after[i].Note)
		assert.True(t, before[i].Timestamp.Equal(after[i].Timestamp))
	}
}

func TestBackup_RestoreMixedIDsKeepsEveryEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snapshot := `{"history": [
		{"consumerNo": "1", "note": "no id", "status": "Pending", "timestamp": "2026-09-01T08:00:00Z"},
		{"id": 1, "consumerNo": "2", "note": "explicit 1", "status": "Paid", "timestamp": "2026-09-02T08:00:00Z"},
		{"consumerNo": "3", "note": "also no id", "status": "TD", "timestamp": "2026-09-03T08:00:00Z"},
		{"id": 2, "consumerNo": "4", "note": "explicit 2", "status": "PD", "timestamp": "2026-09-04T08:00:00Z"}
	]}`

	result, err := f.backup.Restore(ctx, []byte(snapshot))
	require.NoError(t, err)
	assert.Equal(t, 4, result.HistoryCount)

	all, err := f.journal.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, result.HistoryCount)

	byNote := map[string]int64{}
	for _, e := range all {
		byNote[e.Note] = e.ID
	}
	assert.Equal(t, int64(1), byNote["explicit 1"])
	assert.Equal(t, int64(2), byNote["explicit 2"])
	assert.Greater(t, byNote["no id"], int64(2))
	assert.Greater(t, byNote["also no id"], byNote["no id"])
}
