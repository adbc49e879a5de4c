package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func newTestStorage(t *testing.T) *SnapshotStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSnapshotStorage(db, logger)
}

func TestSnapshotRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	snap := &models.Snapshot{
		Key:         "fundamentals/RELIANCE",
		Symbol:      "RELIANCE",
		SourceURL:   "https://www.screener.in/company/RELIANCE/consolidated/",
		ContentType: "text/html",
		Body:        []byte("<html>fundamentals</html>"),
		FetchedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, storage.PutSnapshot(ctx, snap))

	got, err := storage.GetSnapshot(ctx, "fundamentals/RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, snap.Symbol, got.Symbol)
	assert.Equal(t, snap.Body, got.Body)
	assert.WithinDuration(t, snap.FetchedAt, got.FetchedAt, time.Second)
}

func TestSnapshotUpsertReplaces(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	first := &models.Snapshot{Key: "quotes/RELIANCE", Symbol: "RELIANCE", Body: []byte("old")}
	require.NoError(t, storage.PutSnapshot(ctx, first))

	second := &models.Snapshot{Key: "quotes/RELIANCE", Symbol: "RELIANCE", Body: []byte("new")}
	require.NoError(t, storage.PutSnapshot(ctx, second))

	got, err := storage.GetSnapshot(ctx, "quotes/RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Body)
}

func TestSnapshotMissingKey(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetSnapshot(context.Background(), "never/stored")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	err = storage.PutSnapshot(context.Background(), &models.Snapshot{})
	assert.Error(t, err, "empty key must be rejected")
}

func TestRefreshHistoryOrderAndFiltering(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	// Insert out of order across two symbols and two classes.
	events := []models.RefreshEvent{
		{Symbol: "RELIANCE", Class: models.DataClassPrices, ObservedAt: base.AddDate(0, 0, 2)},
		{Symbol: "RELIANCE", Class: models.DataClassPrices, ObservedAt: base},
		{Symbol: "RELIANCE", Class: models.DataClassPrices, ObservedAt: base.AddDate(0, 0, 1)},
		{Symbol: "RELIANCE", Class: models.DataClassFilings, ObservedAt: base},
		{Symbol: "TCS", Class: models.DataClassPrices, ObservedAt: base},
	}
	for i := range events {
		require.NoError(t, storage.RecordRefresh(ctx, &events[i]))
	}

	history, err := storage.RefreshHistory(ctx, "RELIANCE", models.DataClassPrices)
	require.NoError(t, err)
	require.Len(t, history, 3, "other symbols and classes must not leak in")

	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Before(history[i]), "history must be oldest first")
	}

	empty, err := storage.RefreshHistory(ctx, "INFY", models.DataClassPrices)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecordRefreshStampsRecordedAt(t *testing.T) {
	storage := newTestStorage(t)

	ev := &models.RefreshEvent{Symbol: "X", Class: models.DataClassFundamentals, ObservedAt: time.Now()}
	require.NoError(t, storage.RecordRefresh(context.Background(), ev))
	assert.False(t, ev.RecordedAt.IsZero())
}
