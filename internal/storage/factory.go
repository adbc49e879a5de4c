// Package storage selects and constructs the storage backend.
package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/storage/badger"
)

// NewStorageManager creates the storage manager for the configured
// backend. Badger is the only backend; the factory stays so callers
// depend on the interface, not the implementation.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &config.Storage.Badger)
}
