package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
)

// Manager owns the Badger connection and hands out the typed storage
// facades built on it.
type Manager struct {
	db        *BadgerDB
	snapshots interfaces.SnapshotStore
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		snapshots: NewSnapshotStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// SnapshotStore returns the snapshot cache and refresh log.
func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshots
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
