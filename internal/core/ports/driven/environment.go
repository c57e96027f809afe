package driven

import "github.com/custodia-labs/feedsync/internal/core/domain"

// Connectivity reports whether the remote service is reachable.
type Connectivity interface {
	IsOnline() bool
}

// ActivityTracker reports how many foreground observers are active.
type ActivityTracker interface {
	ActiveCount() int
}

// Notifier broadcasts sync state changes to observers.
type Notifier interface {
	// StateChanged signals that sync state changed. newContent reports
	// whether stored content changed too.
	StateChanged(newContent bool)
}

// Preferences is the persisted user and timer configuration the sync
// service consults.
type Preferences interface {
	// StoryOrder returns the ordering configured for a feed set.
	StoryOrder(fs domain.FeedSet) domain.StoryOrder

	// ReadFilter returns the read filter configured for a feed set.
	ReadFilter(fs domain.FeedSet) domain.ReadFilter

	// IsTimeToAutoSync reports whether the metadata auto-sync timer elapsed.
	IsTimeToAutoSync() bool

	// UpdateLastSyncTime restarts the auto-sync timer.
	UpdateLastSyncTime() error

	// IsTimeToVacuum reports whether the maintenance timer elapsed.
	IsTimeToVacuum() bool

	// UpdateLastVacuumTime restarts the maintenance timer.
	UpdateLastVacuumTime() error

	// CheckForUpgrade reports whether the application version changed since
	// the last call, recording the current version.
	CheckForUpgrade() bool

	IsOfflineEnabled() bool
	IsBackgroundNetworkAllowed() bool
	IsKeepOldStories() bool
}

// SessionInvalidator logs the user out after the server rejected the session.
type SessionInvalidator interface {
	Logout() error
}

// CompanionService is a dependent background service started by a sync run,
// such as unread sync, original text fetch or image prefetch. A companion
// holds the keep-alive guard for as long as it has work.
type CompanionService interface {
	// Start wakes the service to process outstanding work for a trigger.
	Start(triggerID int64)

	// Running reports whether the service is working.
	Running() bool

	// PendingCount returns the amount of outstanding work.
	PendingCount() int

	// Shutdown stops the service.
	Shutdown()
}

// UnreadService is the companion that syncs unread story hashes.
type UnreadService interface {
	CompanionService

	// ClearHashes drops any cached unread hash state.
	ClearHashes()
}
