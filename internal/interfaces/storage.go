package interfaces

// StorageManager owns the storage backend and hands out the typed
// stores built on it. The download cache is the only persistence in
// the system; analysis results are never stored.
type StorageManager interface {
	// SnapshotStore returns the snapshot cache and refresh log.
	SnapshotStore() SnapshotStore

	// Close closes the underlying database.
	Close() error
}
