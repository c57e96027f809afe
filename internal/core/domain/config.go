package domain

import "time"

// SyncConfig holds the tunables of the sync service.
type SyncConfig struct {
	// AutoSyncInterval is how often metadata is refreshed without being forced.
	AutoSyncInterval time.Duration

	// VacuumInterval is how often the store is compacted.
	VacuumInterval time.Duration

	// ShutdownSlack bounds how long Shutdown waits for an in-flight run.
	ShutdownSlack time.Duration

	// KeepOldStories disables pruning of read stories during cleanup.
	KeepOldStories bool

	// OfflineEnabled allows runs while no foreground activity is active.
	OfflineEnabled bool

	// BackgroundNetworkAllowed allows network phases while no foreground
	// activity is active.
	BackgroundNetworkAllowed bool
}

// DefaultSyncConfig returns sensible defaults for the sync service.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		AutoSyncInterval:         15 * time.Minute,
		VacuumInterval:           24 * time.Hour,
		ShutdownSlack:            5 * time.Second,
		KeepOldStories:           false,
		OfflineEnabled:           true,
		BackgroundNetworkAllowed: true,
	}
}
