package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// SyncService is the background synchronisation service as seen by the UI
// and trigger layer. Every method is safe for concurrent use.
type SyncService interface {
	// Trigger requests a sync run and returns its trigger id. A trigger that
	// arrives while a run is active is folded into one follow-up run. Returns
	// 0 when the trigger was skipped.
	Trigger(reason string) int64

	// Wait blocks until no run is active or ctx is done.
	Wait(ctx context.Context) error

	// RequestMore asks for at least desired stories of fs on the next run.
	// callerSeen is the number of stories the caller holds, or negative to
	// trust the service's own count. Returns true if a fetch will occur.
	RequestMore(fs domain.FeedSet, desired, callerSeen int) bool

	// ForceMetadataRefresh refreshes feeds and folders on the next run even
	// if the auto-sync timer has not elapsed.
	ForceMetadataRefresh()

	// SetActivationMode sets which received stories may be surfaced.
	SetActivationMode(mode domain.ActivationMode, cutoff time.Time)

	// EnqueueAction queues a reading action for replay on the next run.
	EnqueueAction(ctx context.Context, action domain.ReadingAction) error

	// SoftInterrupt asks the running phase to stop at its next poll point.
	SoftInterrupt()

	// Resume clears a soft interrupt.
	Resume()

	// IsBusy reports whether any phase or companion service is working.
	IsBusy() bool

	// StatusMessage describes the current activity. ok is false when idle.
	StatusMessage() (msg string, ok bool)

	// IsScopeSyncing reports whether stories of fs are being fetched.
	IsScopeSyncing(fs domain.FeedSet) bool

	// ResetScopeTracking clears pagination and exhaustion state.
	ResetScopeTracking()

	// Session returns the flags derived from the last metadata refresh.
	Session() domain.Session
}
