package services

import (
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// PaginationTracker keeps the per-scope fetch bookkeeping: requested story
// counts, pages and stories seen, and scopes with no further pages.
//
// The request side (RequestMore) runs on caller goroutines while the story
// phase advances the counters from the sync lane; a single mutex covers
// every map so neither side loses the other's update.
type PaginationTracker struct {
	mu          sync.Mutex
	pending     map[domain.FeedSet]int
	exhausted   map[domain.FeedSet]struct{}
	pagesSeen   map[domain.FeedSet]int
	storiesSeen map[domain.FeedSet]int
}

// ScopeProgress is a snapshot of one scope's bookkeeping.
type ScopeProgress struct {
	Scope     domain.FeedSet
	Target    int
	Pending   bool
	Exhausted bool
	Pages     int
	Stories   int
	Touched   bool
}

// NewPaginationTracker creates an empty tracker.
func NewPaginationTracker() *PaginationTracker {
	return &PaginationTracker{
		pending:     make(map[domain.FeedSet]int),
		exhausted:   make(map[domain.FeedSet]struct{}),
		pagesSeen:   make(map[domain.FeedSet]int),
		storiesSeen: make(map[domain.FeedSet]int),
	}
}

// RequestMore records that at least desired stories of fs are wanted and
// reports whether a fetch will occur on the next story phase.
//
// callerSeen is the number of stories the caller holds, or negative when the
// caller trusts the tracker's own count. A caller holding fewer stories than
// the tracker counted (typically because it filters) lowers the count and
// clears the standing request, so a fresh fetch is allowed.
func (t *PaginationTracker) RequestMore(fs domain.FeedSet, desired, callerSeen int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.exhausted[fs]; ok {
		logger.Debug("rejecting request for exhausted scope %s", fs)
		return false
	}

	seen := t.storiesSeen[fs]
	requested := t.pending[fs]
	if callerSeen >= 0 && callerSeen < seen {
		seen = callerSeen
		t.storiesSeen[fs] = callerSeen
		requested = 0
	}
	if desired <= seen {
		return false
	}
	logger.Debug("scope %s have:%d want:%d requested:%d", fs, seen, desired, requested)
	if desired <= requested {
		return false
	}

	t.pending[fs] = desired
	return true
}

// PendingScopes returns a snapshot of the scopes with an outstanding request.
func (t *PaginationTracker) PendingScopes() []domain.FeedSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	scopes := make([]domain.FeedSet, 0, len(t.pending))
	for fs := range t.pending {
		scopes = append(scopes, fs)
	}
	return scopes
}

// IsPending reports whether fs has an outstanding request.
func (t *PaginationTracker) IsPending(fs domain.FeedSet) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[fs]
	return ok
}

// IsExhausted reports whether the server has no further pages for fs.
func (t *PaginationTracker) IsExhausted(fs domain.FeedSet) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.exhausted[fs]
	return ok
}

// Progress returns a snapshot of the bookkeeping for fs.
func (t *PaginationTracker) Progress(fs domain.FeedSet) ScopeProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := ScopeProgress{Scope: fs}
	p.Target, p.Pending = t.pending[fs]
	_, p.Exhausted = t.exhausted[fs]
	p.Stories, p.Touched = t.storiesSeen[fs]
	p.Pages = t.pagesSeen[fs]
	return p
}

// begin prepares fs for a fetch loop. It returns false, dropping the request,
// when fs is exhausted or no longer pending.
func (t *PaginationTracker) begin(fs domain.FeedSet) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.exhausted[fs]; ok {
		delete(t.pending, fs)
		return false
	}
	if _, ok := t.pending[fs]; !ok {
		return false
	}
	if _, ok := t.pagesSeen[fs]; !ok {
		t.pagesSeen[fs] = 0
	}
	if _, ok := t.storiesSeen[fs]; !ok {
		t.storiesSeen[fs] = 0
	}
	return true
}

// nextPage returns the page to fetch for fs, or false when the request is
// satisfied or gone.
func (t *PaginationTracker) nextPage(fs domain.FeedSet) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.pending[fs]
	if !ok || t.storiesSeen[fs] >= target {
		return 0, false
	}
	return t.pagesSeen[fs] + 1, true
}

// recordPage advances the counters of fs by one fetched page.
func (t *PaginationTracker) recordPage(fs domain.FeedSet, stories int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pagesSeen[fs]++
	t.storiesSeen[fs] += stories
}

// markExhausted records that fs has no further pages and drops its request.
func (t *PaginationTracker) markExhausted(fs domain.FeedSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exhausted[fs] = struct{}{}
	delete(t.pending, fs)
}

// finish drops the request for fs if it is satisfied. A target raised by a
// concurrent RequestMore keeps the request pending for the next run.
func (t *PaginationTracker) finish(fs domain.FeedSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.pending[fs]
	if !ok {
		return
	}
	if t.storiesSeen[fs] >= target {
		delete(t.pending, fs)
	}
}

// Reset clears pages seen, stories seen and exhausted scopes. Outstanding
// requests survive and are fetched from the first page.
func (t *PaginationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.exhausted)
	clear(t.pagesSeen)
	clear(t.storiesSeen)
}
