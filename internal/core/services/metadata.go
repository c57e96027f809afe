package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// MetadataSyncPhase refreshes the feed/folder snapshot. A refresh resets the
// server's story pagination, so it also resets the local pagination
// bookkeeping.
type MetadataSyncPhase struct {
	api        driven.API
	stories    driven.StoryStore
	feeds      driven.FeedStore
	prefs      driven.Preferences
	session    driven.SessionInvalidator
	unreads    driven.UnreadService
	tracker    *PaginationTracker
	guard      *KeepAliveGuard
	state      *RunState
	activation *ActivationPolicy
	notifier   driven.Notifier
	metrics    driven.SyncMetrics

	now    func() time.Time
	forced atomic.Bool

	mu      sync.RWMutex
	flags   domain.Session
	orphans []string
}

// NewMetadataSyncPhase creates the metadata phase. session, unreads,
// notifier and metrics may be nil.
func NewMetadataSyncPhase(
	api driven.API,
	stories driven.StoryStore,
	feeds driven.FeedStore,
	prefs driven.Preferences,
	session driven.SessionInvalidator,
	unreads driven.UnreadService,
	tracker *PaginationTracker,
	guard *KeepAliveGuard,
	state *RunState,
	activation *ActivationPolicy,
	notifier driven.Notifier,
	metrics driven.SyncMetrics,
) *MetadataSyncPhase {
	return &MetadataSyncPhase{
		api:        api,
		stories:    stories,
		feeds:      feeds,
		prefs:      prefs,
		session:    session,
		unreads:    unreads,
		tracker:    tracker,
		guard:      guard,
		state:      state,
		activation: activation,
		notifier:   notifier,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Force makes the next run refresh even if the auto-sync timer has not
// elapsed.
func (p *MetadataSyncPhase) Force() {
	p.forced.Store(true)
}

// Run refreshes metadata when forced or due. It only runs under the
// unrestricted activation mode, since a refresh rewrites the story lists an
// open view is showing.
func (p *MetadataSyncPhase) Run(ctx context.Context, triggerID int64) error {
	if !p.ready() {
		return nil
	}
	if !p.forced.Swap(false) && !p.prefs.IsTimeToAutoSync() {
		return nil
	}
	if err := p.prefs.UpdateLastSyncTime(); err != nil {
		logger.Warn("failed to record sync time: %v", err)
	}

	p.cleanup(ctx)

	// cleanup can be slow
	if !p.ready() {
		return nil
	}

	p.state.Set(PhaseMetadata, true)
	p.notify(false)
	defer func() {
		p.state.Set(PhaseMetadata, false)
		p.notify(true)
	}()

	// the sync time is already recorded, so a failed fetch retries on the
	// next run instead of waiting out the auto-sync interval
	mapping, err := p.api.FetchFolderMapping(ctx, true)
	if err != nil {
		p.forced.Store(true)
		return fmt.Errorf("fetch folder mapping: %w", err)
	}
	if mapping == nil {
		p.forced.Store(true)
		return fmt.Errorf("fetch folder mapping: %w", domain.ErrMalformedResponse)
	}
	if !mapping.Authenticated {
		logger.Warn("server rejected the session, logging out")
		if p.session != nil {
			if err := p.session.Logout(); err != nil {
				logger.Error("logout failed: %v", err)
			}
		}
		return domain.ErrUnauthenticated
	}

	// the server reset its pagination
	p.tracker.Reset()
	if p.unreads != nil {
		p.unreads.ClearHashes()
	}

	start := p.now()
	set, orphans := mapping.Validate()
	for _, id := range orphans {
		logger.Warn("ignoring feed %s that belongs to no folder", id)
	}
	sort.Strings(orphans)

	premium, staff := mapping.Premium, mapping.Staff
	p.mu.Lock()
	p.flags.Premium = &premium
	p.flags.Staff = &staff
	p.orphans = orphans
	p.mu.Unlock()

	if err := p.feeds.ReplaceFeedsFolders(ctx, set); err != nil {
		return fmt.Errorf("write feeds and folders: %w", err)
	}
	if err := p.feeds.UpdateStarredCount(ctx, mapping.StarredCount); err != nil {
		return fmt.Errorf("update starred count: %w", err)
	}

	elapsed := p.now().Sub(start)
	p.mu.Lock()
	p.flags.LastFeedCount = len(set.Feeds)
	p.flags.LastWriteDuration = elapsed
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.MetadataWritten(len(set.Feeds), elapsed)
	}
	logger.Info("wrote %d feeds, %d folders in %s", len(set.Feeds), len(set.Folders), elapsed)

	if p.unreads != nil {
		p.unreads.Start(triggerID)
	}
	return nil
}

func (p *MetadataSyncPhase) ready() bool {
	return !p.guard.ShouldStop() && p.activation.Unrestricted()
}

func (p *MetadataSyncPhase) cleanup(ctx context.Context) {
	p.state.Set(PhaseCleanup, true)
	p.notify(false)
	defer func() {
		p.state.Set(PhaseCleanup, false)
		p.notify(false)
	}()

	if err := p.stories.CleanupStories(ctx, p.prefs.IsKeepOldStories()); err != nil {
		logger.Warn("story cleanup failed: %v", err)
	}
	if err := p.stories.CleanupStoryText(ctx); err != nil {
		logger.Warn("story text cleanup failed: %v", err)
	}
}

// Session returns the flags of the last successful refresh.
func (p *MetadataSyncPhase) Session() domain.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flags
}

// OrphanFeeds returns the ids of feeds the last refresh dropped because they
// belong to no folder.
func (p *MetadataSyncPhase) OrphanFeeds() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.orphans...)
}

func (p *MetadataSyncPhase) notify(newContent bool) {
	if p.notifier != nil {
		p.notifier.StateChanged(newContent)
	}
}
