// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - API: The remote feed service (stories, feeds/folders, action replay)
//   - ActionStore: Queue of reading actions awaiting replay
//   - StoryStore: Story persistence and local action application
//   - FeedStore: Feed/folder snapshot persistence
//   - Preferences: Per-feed-set ordering, timers and sync switches
//   - Connectivity: Whether the service is reachable
//
// # Optional Interfaces
//
// These can be nil - the sync service degrades gracefully:
//
//   - MaintenanceStore: Vacuum is skipped without it
//   - Notifier: State changes are not broadcast
//   - ActivityTracker: Treated as no foreground activity
//   - SessionInvalidator: Unauthenticated responses only abort the phase
//   - UnreadService, CompanionService: Dependent work is not started
//   - SchedulerStore: Only needed by the periodic scheduler
//   - SyncMetrics: Telemetry is discarded
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
