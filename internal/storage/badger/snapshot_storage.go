package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// SnapshotStorage implements the SnapshotStore interface for Badger.
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) *SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

var _ interfaces.SnapshotStore = (*SnapshotStorage)(nil)

// PutSnapshot stores or replaces the cached payload for a key.
func (s *SnapshotStorage) PutSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap.Key == "" {
		return fmt.Errorf("snapshot key is empty")
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	if err := s.db.Store().Upsert(snap.Key, snap); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", snap.Key, err)
	}
	s.logger.Debug().
		Str("key", snap.Key).
		Int("bytes", len(snap.Body)).
		Msg("Snapshot stored")
	return nil
}

// GetSnapshot returns the cached payload for a key.
func (s *SnapshotStorage) GetSnapshot(ctx context.Context, key string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.db.Store().Get(key, &snap)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// RecordRefresh appends one observation to the refresh log. IDs come
// from the store sequence.
func (s *SnapshotStorage) RecordRefresh(ctx context.Context, event *models.RefreshEvent) error {
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}
	if err := s.db.Store().Insert(badgerhold.NextSequence(), event); err != nil {
		return fmt.Errorf("failed to record refresh event: %w", err)
	}
	return nil
}

// RefreshHistory returns observation timestamps for a symbol and data
// class, oldest first.
func (s *SnapshotStorage) RefreshHistory(ctx context.Context, symbol string, class models.DataClass) ([]time.Time, error) {
	var events []models.RefreshEvent
	query := badgerhold.Where("Symbol").Eq(symbol).And("Class").Eq(class).SortBy("ObservedAt")
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, fmt.Errorf("failed to query refresh history: %w", err)
	}

	out := make([]time.Time, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ObservedAt)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SnapshotStorage) Close() error {
	return s.db.Close()
}
