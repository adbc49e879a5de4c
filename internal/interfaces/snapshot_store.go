package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// ErrSnapshotNotFound is returned when no cached snapshot exists for
// a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore caches fetched source payloads and keeps the refresh
// event log the staleness check derives its cadence from.
type SnapshotStore interface {
	// PutSnapshot stores or replaces the cached payload for a key.
	PutSnapshot(ctx context.Context, snap *models.Snapshot) error

	// GetSnapshot returns the cached payload for a key, or
	// ErrSnapshotNotFound.
	GetSnapshot(ctx context.Context, key string) (*models.Snapshot, error)

	// RecordRefresh appends one observation to the refresh log.
	RecordRefresh(ctx context.Context, event *models.RefreshEvent) error

	// RefreshHistory returns the observation timestamps for a symbol
	// and data class, oldest first.
	RefreshHistory(ctx context.Context, symbol string, class models.DataClass) ([]time.Time, error)

	Close() error
}
