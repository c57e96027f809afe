package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// StorySyncPhase fetches story pages for the feed sets the UI asked for.
type StorySyncPhase struct {
	api        driven.API
	stories    driven.StoryStore
	feeds      driven.FeedStore
	prefs      driven.Preferences
	tracker    *PaginationTracker
	guard      *KeepAliveGuard
	state      *RunState
	activation *ActivationPolicy
	notifier   driven.Notifier
	metrics    driven.SyncMetrics
}

// NewStorySyncPhase creates the story phase. feeds resolves folder scopes;
// notifier and metrics may be nil.
func NewStorySyncPhase(
	api driven.API,
	stories driven.StoryStore,
	feeds driven.FeedStore,
	prefs driven.Preferences,
	tracker *PaginationTracker,
	guard *KeepAliveGuard,
	state *RunState,
	activation *ActivationPolicy,
	notifier driven.Notifier,
	metrics driven.SyncMetrics,
) *StorySyncPhase {
	return &StorySyncPhase{
		api:        api,
		stories:    stories,
		feeds:      feeds,
		prefs:      prefs,
		tracker:    tracker,
		guard:      guard,
		state:      state,
		activation: activation,
		notifier:   notifier,
		metrics:    metrics,
	}
}

// Run pages through every pending feed set until its request is satisfied
// or the server runs out of stories.
//
// A stop request aborts the whole phase and leaves the scope being fetched
// pending. A failed or malformed page abandons only that scope for this run,
// again leaving it pending. The returned error joins those failures.
func (p *StorySyncPhase) Run(ctx context.Context) error {
	if p.guard.ShouldStop() {
		return nil
	}

	running := false
	defer func() {
		if running {
			p.state.Set(PhaseStories, false)
			p.notify(false)
		}
	}()

	var errs []error
	for _, fs := range p.tracker.PendingScopes() {
		if !p.tracker.begin(fs) {
			logger.Debug("no more stories for %s", fs)
			continue
		}

		if !running {
			running = true
			p.state.Set(PhaseStories, true)
			p.notify(false)
		}

		stopped, err := p.syncScope(ctx, fs)
		if stopped {
			return errors.Join(errs...)
		}
		if err != nil {
			logger.Warn("abandoning %s for this run: %v", fs, err)
			errs = append(errs, err)
			continue
		}
		p.tracker.finish(fs)
	}
	return errors.Join(errs...)
}

// syncScope runs the page loop of one scope. stopped reports that the phase
// must end.
func (p *StorySyncPhase) syncScope(ctx context.Context, fs domain.FeedSet) (stopped bool, err error) {
	order := p.prefs.StoryOrder(fs)
	filter := p.prefs.ReadFilter(fs)

	req := fs
	if fs.NeedsFeeds() {
		ids, err := p.feeds.FolderFeeds(ctx, fs.ID())
		if err != nil {
			return false, fmt.Errorf("resolve %s: %w", fs, err)
		}
		if len(ids) == 0 {
			// an empty river request would return every feed
			logger.Debug("%s has no feeds", fs)
			p.tracker.markExhausted(fs)
			return false, nil
		}
		req = fs.WithFeeds(ids...)
	}

	for {
		page, more := p.tracker.nextPage(fs)
		if !more {
			return false, nil
		}
		if p.guard.ShouldStop() {
			logger.Debug("story sync interrupted at %s page %d", fs, page)
			return true, nil
		}

		resp, err := p.api.FetchStoriesPage(ctx, req, page, order, filter)
		if err != nil {
			return false, fmt.Errorf("fetch %s page %d: %w", fs, page, err)
		}
		if !resp.Valid() {
			return false, fmt.Errorf("fetch %s page %d: %w", fs, page, domain.ErrMalformedResponse)
		}

		mode, cutoff := p.activation.Get()
		if err := p.stories.InsertStories(ctx, resp, mode, cutoff); err != nil {
			return false, fmt.Errorf("store %s page %d: %w", fs, page, err)
		}
		p.tracker.recordPage(fs, len(resp.Stories))
		if p.metrics != nil {
			p.metrics.PageFetched(string(fs.Kind()), len(resp.Stories))
		}
		p.notify(true)

		if len(resp.Stories) == 0 {
			logger.Debug("%s exhausted after %d pages", fs, page)
			p.tracker.markExhausted(fs)
			return false, nil
		}
	}
}

// IsScopeSyncing reports whether fs is pending while the phase runs.
func (p *StorySyncPhase) IsScopeSyncing(fs domain.FeedSet) bool {
	return p.state.Running(PhaseStories) && p.tracker.IsPending(fs)
}

func (p *StorySyncPhase) notify(newContent bool) {
	if p.notifier != nil {
		p.notifier.StateChanged(newContent)
	}
}
