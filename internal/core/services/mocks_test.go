package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// --- Fakes shared by the sync service tests ---

type pageCall struct {
	fs     domain.FeedSet
	page   int
	order  domain.StoryOrder
	filter domain.ReadFilter
}

// fakeAPI implements driven.API. Unset hooks answer successfully.
type fakeAPI struct {
	mu sync.Mutex

	mapping      *domain.FolderMapping
	mappingErr   error
	mappingCalls int

	pageFn    func(fs domain.FeedSet, page int) (*domain.StoriesPage, error)
	pageCalls []pageCall

	// remoteFn answers action calls; key is the story hash or joined feed ids.
	remoteFn    func(method, key string) (*domain.APIResponse, error)
	remoteCalls []string

	// events records every call in order.
	events []string
}

var _ driven.API = (*fakeAPI)(nil)

func okResponse() *domain.APIResponse {
	return &domain.APIResponse{Authenticated: true}
}

func (f *fakeAPI) FetchFolderMapping(_ context.Context, _ bool) (*domain.FolderMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappingCalls++
	f.events = append(f.events, "mapping")
	return f.mapping, f.mappingErr
}

func (f *fakeAPI) FetchStoriesPage(
	_ context.Context,
	fs domain.FeedSet,
	page int,
	order domain.StoryOrder,
	filter domain.ReadFilter,
) (*domain.StoriesPage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, pageCall{fs: fs, page: page, order: order, filter: filter})
	f.events = append(f.events, fmt.Sprintf("page:%s:%d", fs, page))
	fn := f.pageFn
	f.mu.Unlock()
	if fn == nil {
		return &domain.StoriesPage{Authenticated: true, Stories: []domain.Story{}}, nil
	}
	return fn(fs, page)
}

func (f *fakeAPI) pages() []pageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pageCall(nil), f.pageCalls...)
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeAPI) mappings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mappingCalls
}

func (f *fakeAPI) remote(method, key string) (*domain.APIResponse, error) {
	f.mu.Lock()
	f.remoteCalls = append(f.remoteCalls, method+":"+key)
	f.events = append(f.events, "remote:"+method+":"+key)
	fn := f.remoteFn
	f.mu.Unlock()
	if fn == nil {
		return okResponse(), nil
	}
	return fn(method, key)
}

func (f *fakeAPI) remotes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.remoteCalls...)
}

func (f *fakeAPI) MarkStoriesRead(_ context.Context, hashes []string) (*domain.APIResponse, error) {
	return f.remote("read", fmt.Sprint(hashes))
}

func (f *fakeAPI) MarkStoryUnread(_ context.Context, hash string) (*domain.APIResponse, error) {
	return f.remote("unread", hash)
}

func (f *fakeAPI) MarkFeedsRead(_ context.Context, feedIDs []string, _, _ time.Time) (*domain.APIResponse, error) {
	return f.remote("feedread", fmt.Sprint(feedIDs))
}

func (f *fakeAPI) SaveStory(_ context.Context, hash string, _ []string) (*domain.APIResponse, error) {
	return f.remote("save", hash)
}

func (f *fakeAPI) UnsaveStory(_ context.Context, hash string) (*domain.APIResponse, error) {
	return f.remote("unsave", hash)
}

func (f *fakeAPI) ShareStory(_ context.Context, hash, _, _ string) (*domain.APIResponse, error) {
	return f.remote("share", hash)
}

// makePage builds a page of n stories of fs.
func makePage(fs domain.FeedSet, page, n int) *domain.StoriesPage {
	stories := make([]domain.Story, n)
	for i := range stories {
		stories[i] = domain.Story{
			Hash:      fmt.Sprintf("%s:%d:%d", fs.Key(), page, i),
			FeedID:    fs.ID(),
			Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(page*100+i) * time.Minute),
		}
	}
	return &domain.StoriesPage{Authenticated: true, Stories: stories}
}

// fakePrefs implements driven.Preferences.
type fakePrefs struct {
	mu sync.Mutex

	offline           bool
	backgroundNetwork bool
	keepOld           bool
	autoSyncDue       bool
	vacuumDue         bool
	upgraded          bool
	order             domain.StoryOrder
	filter            domain.ReadFilter

	syncTimeUpdates   int
	vacuumTimeUpdates int
}

var _ driven.Preferences = (*fakePrefs)(nil)

func newFakePrefs() *fakePrefs {
	return &fakePrefs{
		offline:           true,
		backgroundNetwork: true,
		order:             domain.OrderNewest,
		filter:            domain.FilterAll,
	}
}

func (p *fakePrefs) StoryOrder(domain.FeedSet) domain.StoryOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}

func (p *fakePrefs) ReadFilter(domain.FeedSet) domain.ReadFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func (p *fakePrefs) IsTimeToAutoSync() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoSyncDue
}

func (p *fakePrefs) UpdateLastSyncTime() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncTimeUpdates++
	p.autoSyncDue = false
	return nil
}

func (p *fakePrefs) IsTimeToVacuum() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vacuumDue
}

func (p *fakePrefs) UpdateLastVacuumTime() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vacuumTimeUpdates++
	p.vacuumDue = false
	return nil
}

func (p *fakePrefs) CheckForUpgrade() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	upgraded := p.upgraded
	p.upgraded = false
	return upgraded
}

func (p *fakePrefs) IsOfflineEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offline
}

func (p *fakePrefs) IsBackgroundNetworkAllowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backgroundNetwork
}

func (p *fakePrefs) IsKeepOldStories() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keepOld
}

// fakeConnectivity implements driven.Connectivity.
type fakeConnectivity struct {
	offline atomic.Bool
}

func (c *fakeConnectivity) IsOnline() bool { return !c.offline.Load() }

// fakeActivities implements driven.ActivityTracker.
type fakeActivities struct {
	n atomic.Int64
}

func (a *fakeActivities) ActiveCount() int { return int(a.n.Load()) }

// recordingNotifier implements driven.Notifier.
type recordingNotifier struct {
	mu     sync.Mutex
	events []bool
	hook   func(newContent bool)
}

func (n *recordingNotifier) StateChanged(newContent bool) {
	n.mu.Lock()
	n.events = append(n.events, newContent)
	hook := n.hook
	n.mu.Unlock()
	if hook != nil {
		hook(newContent)
	}
}

func (n *recordingNotifier) contentEvents() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e {
			count++
		}
	}
	return count
}

// fakeCompanion implements driven.UnreadService.
type fakeCompanion struct {
	mu       sync.Mutex
	starts   []int64
	running  bool
	pending  int
	clears   int
	shutdown bool
}

var _ driven.UnreadService = (*fakeCompanion)(nil)

func (c *fakeCompanion) Start(triggerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, triggerID)
}

func (c *fakeCompanion) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *fakeCompanion) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *fakeCompanion) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
}

func (c *fakeCompanion) ClearHashes() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
}

func (c *fakeCompanion) set(running bool, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = running
	c.pending = pending
}

func (c *fakeCompanion) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.starts)
}

// fakeSession implements driven.SessionInvalidator.
type fakeSession struct {
	logouts atomic.Int64
}

func (s *fakeSession) Logout() error {
	s.logouts.Add(1)
	return nil
}

// fakeMetrics implements driven.SyncMetrics.
type fakeMetrics struct {
	mu      sync.Mutex
	runs    []string
	pages   int
	stories int
	actions map[string]int
	feeds   int
	writes  int
}

var _ driven.SyncMetrics = (*fakeMetrics)(nil)

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{actions: make(map[string]int)}
}

func (m *fakeMetrics) RunFinished(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, outcome)
}

func (m *fakeMetrics) PageFetched(_ string, stories int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages++
	m.stories += stories
}

func (m *fakeMetrics) ActionReplayed(_, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[outcome]++
}

func (m *fakeMetrics) MetadataWritten(feeds int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds = feeds
	m.writes++
}

func (m *fakeMetrics) runOutcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.runs...)
}
