package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// Ensure SyncCoordinator implements the interface.
var _ driving.SyncService = (*SyncCoordinator)(nil)

// Run outcomes reported to SyncMetrics.
const (
	RunCompleted       = "completed"
	RunInterrupted     = "interrupted"
	RunSkipped         = "skipped"
	RunUnauthenticated = "unauthenticated"
	RunPanicked        = "panicked"
)

// SyncStores groups the persistence ports of the sync service.
// Maintenance may be nil.
type SyncStores struct {
	Actions     driven.ActionStore
	Stories     driven.StoryStore
	Feeds       driven.FeedStore
	Maintenance driven.MaintenanceStore
}

// SyncEnvironment groups the environment ports of the sync service.
// Everything but Preferences may be nil.
type SyncEnvironment struct {
	Preferences  driven.Preferences
	Connectivity driven.Connectivity
	Activities   driven.ActivityTracker
	Notifier     driven.Notifier
	Session      driven.SessionInvalidator
}

// SyncCoordinator runs the sync phases on a single execution lane:
// vacuum, remote action replay, requested story pages, metadata refresh and
// local action finalize.
//
// Triggers never start a second concurrent run. A trigger arriving while a
// run is active is folded into one follow-up run that starts when the active
// one ends, however many triggers arrived meanwhile.
type SyncCoordinator struct {
	cfg         domain.SyncConfig
	prefs       driven.Preferences
	maintenance driven.MaintenanceStore
	activities  driven.ActivityTracker
	notifier    driven.Notifier
	metrics     driven.SyncMetrics
	companions  Companions

	guard      *KeepAliveGuard
	state      *RunState
	tracker    *PaginationTracker
	activation *ActivationPolicy
	reconciler *ActionReconciler
	stories    *StorySyncPhase
	metadata   *MetadataSyncPhase

	slot   *semaphore.Weighted
	queued atomic.Int64
	nextID atomic.Int64
	closed atomic.Bool

	// lanes counts drain goroutines; idle is closed while it is zero
	laneMu sync.Mutex
	lanes  int
	idle   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time

	hookMu sync.RWMutex
	onIdle func(triggerID int64)
}

// NewSyncCoordinator builds the sync service and its phases. metrics may be
// nil, as may any companion.
func NewSyncCoordinator(
	cfg domain.SyncConfig,
	api driven.API,
	stores SyncStores,
	env SyncEnvironment,
	companions Companions,
	metrics driven.SyncMetrics,
) *SyncCoordinator {
	guard := NewKeepAliveGuard(env.Connectivity)
	state := NewRunState(companions)
	tracker := NewPaginationTracker()
	activation := &ActivationPolicy{}
	ctx, cancel := context.WithCancel(context.Background())

	c := &SyncCoordinator{
		cfg:         cfg,
		prefs:       env.Preferences,
		maintenance: stores.Maintenance,
		activities:  env.Activities,
		notifier:    env.Notifier,
		metrics:     metrics,
		companions:  companions,
		guard:       guard,
		state:       state,
		tracker:     tracker,
		activation:  activation,
		reconciler: NewActionReconciler(
			stores.Actions, NewReadingActionExecutor(api, stores.Stories),
			guard, state, env.Notifier, metrics,
		),
		stories: NewStorySyncPhase(
			api, stores.Stories, stores.Feeds, env.Preferences, tracker,
			guard, state, activation, env.Notifier, metrics,
		),
		metadata: NewMetadataSyncPhase(
			api, stores.Stories, stores.Feeds, env.Preferences, env.Session,
			companions.Unreads, tracker, guard, state, activation, env.Notifier, metrics,
		),
		slot:   semaphore.NewWeighted(1),
		idle:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
	close(c.idle)
	guard.SetIdleHook(c.guardIdle)
	return c
}

// Guard returns the keep-alive guard, for companion services to hold while
// they have work.
func (c *SyncCoordinator) Guard() *KeepAliveGuard {
	return c.guard
}

// SetIdleHook registers fn to be called with the last completed trigger id
// whenever all work is done and no foreground activity is active.
func (c *SyncCoordinator) SetIdleHook(fn func(triggerID int64)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onIdle = fn
}

// Trigger requests a sync run and returns its id, or 0 when the trigger was
// skipped because neither offline sync is enabled nor the UI is active.
func (c *SyncCoordinator) Trigger(reason string) int64 {
	if c.closed.Load() {
		logger.Debug("ignoring %s trigger after shutdown", reason)
		return 0
	}
	if !c.prefs.IsOfflineEnabled() && c.activeCount() < 1 {
		logger.Debug("skipping %s sync: app not active and offline sync disabled", reason)
		return 0
	}

	id := c.nextID.Add(1)
	c.queued.Store(id)
	if !c.slot.TryAcquire(1) {
		logger.Debug("trigger %d (%s) folded into the running sync", id, reason)
		return id
	}

	logger.Debug("trigger %d (%s) starting sync", id, reason)
	c.laneStarted()
	go c.drain()
	return id
}

// drain owns the execution slot. It runs the latest queued trigger until
// none is left, then hands the slot back.
func (c *SyncCoordinator) drain() {
	defer c.laneDone()
	for {
		for {
			id := c.queued.Swap(0)
			if id == 0 {
				break
			}
			c.run(id)
		}
		c.slot.Release(1)
		// a trigger that lost the race for the slot after the last Swap
		if c.queued.Load() == 0 || !c.slot.TryAcquire(1) {
			return
		}
	}
}

// Wait blocks until no run is active or ctx is done.
func (c *SyncCoordinator) Wait(ctx context.Context) error {
	c.laneMu.Lock()
	idle := c.idle
	c.laneMu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SyncCoordinator) laneStarted() {
	c.laneMu.Lock()
	defer c.laneMu.Unlock()
	if c.lanes == 0 {
		c.idle = make(chan struct{})
	}
	c.lanes++
}

func (c *SyncCoordinator) laneDone() {
	c.laneMu.Lock()
	defer c.laneMu.Unlock()
	c.lanes--
	if c.lanes == 0 {
		close(c.idle)
	}
}

// run executes one sync. Failures are logged, never returned, and the guard
// is released on every path.
func (c *SyncCoordinator) run(id int64) {
	start := c.now()
	outcome := RunCompleted
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sync %d panicked: %v", id, r)
			outcome = RunPanicked
		}
		if c.metrics != nil {
			c.metrics.RunFinished(outcome, c.now().Sub(start))
		}
	}()

	if c.guard.Interrupted() {
		outcome = RunInterrupted
		return
	}

	c.guard.Acquire()
	defer c.guard.Release(id)

	logger.Section(fmt.Sprintf("Sync %d", id))
	ctx := c.ctx

	c.vacuum(ctx, c.prefs.CheckForUpgrade())

	if !c.prefs.IsBackgroundNetworkAllowed() && c.activeCount() < 1 {
		logger.Debug("abandoning sync %d: background network not allowed", id)
		outcome = RunSkipped
		return
	}

	if c.companions.Text != nil {
		c.companions.Text.Start(id)
	}

	if res, err := c.reconciler.ReplayRemote(ctx); err != nil {
		logger.Error("action replay: %v", err)
	} else if res.Replayed+res.Failed+res.Rejected+res.Dropped > 0 {
		logger.Info("actions: %d replayed, %d failed, %d rejected, %d dropped",
			res.Replayed, res.Failed, res.Rejected, res.Dropped)
	}

	if err := c.stories.Run(ctx); err != nil {
		logger.Warn("story sync: %v", err)
	}

	if err := c.metadata.Run(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			outcome = RunUnauthenticated
		}
		logger.Warn("metadata sync: %v", err)
	}

	if _, err := c.reconciler.FinalizeLocal(ctx); err != nil {
		logger.Error("action finalize: %v", err)
	}

	if outcome == RunCompleted && c.guard.ShouldStop() {
		outcome = RunInterrupted
	}
	logger.Debug("finished sync %d in %s", id, c.now().Sub(start))
}

// vacuum runs storage maintenance after an upgrade or when the maintenance
// timer elapsed. It locks the store, so it is skipped while the UI is active.
func (c *SyncCoordinator) vacuum(ctx context.Context, upgraded bool) {
	if c.maintenance == nil || c.activeCount() > 0 {
		return
	}
	if !upgraded && !c.prefs.IsTimeToVacuum() {
		return
	}

	c.state.Set(PhaseVacuum, true)
	c.notify(false)
	defer func() {
		c.state.Set(PhaseVacuum, false)
		c.notify(false)
	}()

	if err := c.prefs.UpdateLastVacuumTime(); err != nil {
		logger.Warn("failed to record vacuum time: %v", err)
	}
	logger.Info("rebuilding store")
	if err := c.maintenance.Vacuum(ctx); err != nil {
		logger.Error("vacuum: %v", err)
		return
	}
	logger.Info("done rebuilding store")
}

// RequestMore asks for at least desired stories of fs on the next run.
func (c *SyncCoordinator) RequestMore(fs domain.FeedSet, desired, callerSeen int) bool {
	return c.tracker.RequestMore(fs, desired, callerSeen)
}

// ForceMetadataRefresh refreshes feeds and folders on the next run.
func (c *SyncCoordinator) ForceMetadataRefresh() {
	c.metadata.Force()
}

// SetActivationMode sets which received stories may be surfaced.
func (c *SyncCoordinator) SetActivationMode(mode domain.ActivationMode, cutoff time.Time) {
	c.activation.Set(mode, cutoff)
}

// EnqueueAction applies a reading action locally and queues it for replay.
func (c *SyncCoordinator) EnqueueAction(ctx context.Context, action domain.ReadingAction) error {
	return c.reconciler.Enqueue(ctx, action)
}

// SoftInterrupt asks the running phase to stop at its next poll point.
func (c *SyncCoordinator) SoftInterrupt() {
	c.guard.SoftInterrupt()
}

// Resume clears a soft interrupt.
func (c *SyncCoordinator) Resume() {
	c.guard.Resume()
}

// IsBusy reports whether any phase or companion service is working.
func (c *SyncCoordinator) IsBusy() bool {
	return c.state.IsBusy()
}

// StatusMessage describes the current activity.
func (c *SyncCoordinator) StatusMessage() (string, bool) {
	return c.state.StatusMessage()
}

// IsScopeSyncing reports whether stories of fs are being fetched.
func (c *SyncCoordinator) IsScopeSyncing(fs domain.FeedSet) bool {
	return c.stories.IsScopeSyncing(fs)
}

// ResetScopeTracking clears pagination and exhaustion state.
func (c *SyncCoordinator) ResetScopeTracking() {
	c.tracker.Reset()
}

// Session returns the flags derived from the last metadata refresh.
func (c *SyncCoordinator) Session() domain.Session {
	return c.metadata.Session()
}

// ScopeProgress returns the pagination bookkeeping of fs.
func (c *SyncCoordinator) ScopeProgress(fs domain.FeedSet) ScopeProgress {
	return c.tracker.Progress(fs)
}

// OrphanFeeds returns the feeds the last refresh dropped for having no folder.
func (c *SyncCoordinator) OrphanFeeds() []string {
	return c.metadata.OrphanFeeds()
}

// SpeedInfo formats the last metadata write as "<feeds> in <millis>".
func (c *SyncCoordinator) SpeedInfo() string {
	return c.metadata.Session().SpeedInfo()
}

// MemoryLow reports whether the last memory signal was severe.
func (c *SyncCoordinator) MemoryLow() bool {
	return c.state.MemoryLow()
}

// ReportMemoryPressure records a memory signal. When the service is idle in
// the background the idle hook fires again so the host can release it.
func (c *SyncCoordinator) ReportMemoryPressure(severe bool) {
	if severe {
		c.state.SetMemoryLow(true)
	}
	last := c.guard.LastCompleted()
	if last != NoTrigger && c.guard.Idle() && c.activeCount() < 1 {
		c.fireIdle(last)
	}
}

// Shutdown stops accepting triggers, interrupts the running phase, stops the
// companions and waits up to the configured slack for the lane to drain.
// A run still active after the slack has its context cancelled.
func (c *SyncCoordinator) Shutdown(ctx context.Context) error {
	c.closed.Store(true)
	c.guard.SoftInterrupt()
	for _, comp := range c.state.companionList() {
		comp.Shutdown()
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ShutdownSlack)
	defer cancel()
	err := c.Wait(waitCtx)
	c.cancel()
	if err != nil {
		return fmt.Errorf("%w: sync still running after %s", domain.ErrShutdown, c.cfg.ShutdownSlack)
	}
	return nil
}

func (c *SyncCoordinator) guardIdle(triggerID int64) {
	if c.activeCount() < 1 {
		c.fireIdle(triggerID)
	}
}

func (c *SyncCoordinator) fireIdle(triggerID int64) {
	c.hookMu.RLock()
	hook := c.onIdle
	c.hookMu.RUnlock()
	if hook != nil {
		hook(triggerID)
	}
}

func (c *SyncCoordinator) activeCount() int {
	if c.activities == nil {
		return 0
	}
	return c.activities.ActiveCount()
}

func (c *SyncCoordinator) notify(newContent bool) {
	if c.notifier != nil {
		c.notifier.StateChanged(newContent)
	}
}
