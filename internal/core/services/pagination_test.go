package services

import (
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

func TestPaginationTracker_RequestMore_New(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("42")

	assert.True(t, tr.RequestMore(fs, 50, -1))
	p := tr.Progress(fs)
	assert.True(t, p.Pending)
	assert.Equal(t, 50, p.Target)
	assert.False(t, p.Touched, "a request alone does not touch the counters")
}

func TestPaginationTracker_RequestMore_Duplicate(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("42")

	require.True(t, tr.RequestMore(fs, 50, -1))
	assert.False(t, tr.RequestMore(fs, 50, -1))
	assert.False(t, tr.RequestMore(fs, 30, -1))
	assert.True(t, tr.RequestMore(fs, 60, -1))
	assert.Equal(t, 60, tr.Progress(fs).Target)
}

func TestPaginationTracker_RequestMore_AlreadySeen(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("42")

	require.True(t, tr.RequestMore(fs, 20, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 20)
	tr.finish(fs)

	assert.False(t, tr.RequestMore(fs, 20, -1))
	assert.False(t, tr.RequestMore(fs, 10, -1))
	assert.True(t, tr.RequestMore(fs, 21, -1))
}

func TestPaginationTracker_RequestMore_CallerSeenLowersCount(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.FolderScope("tech")

	// tracker has seen 30 stories and still holds a request for 50
	require.True(t, tr.RequestMore(fs, 50, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 30)

	// without a caller count the standing request blocks a duplicate
	assert.False(t, tr.RequestMore(fs, 50, -1))

	// a filtering caller only holds 10: count is lowered, request allowed
	assert.True(t, tr.RequestMore(fs, 50, 10))
	p := tr.Progress(fs)
	assert.Equal(t, 10, p.Stories)
	assert.Equal(t, 50, p.Target)
}

func TestPaginationTracker_RequestMore_CallerSeenNotLower(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("42")

	require.True(t, tr.RequestMore(fs, 50, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 30)

	assert.False(t, tr.RequestMore(fs, 50, 30))
	assert.False(t, tr.RequestMore(fs, 50, 40))
	assert.Equal(t, 30, tr.Progress(fs).Stories)
}

func TestPaginationTracker_ExhaustedRejectsUntilReset(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SavedStories("")

	require.True(t, tr.RequestMore(fs, 10, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 0)
	tr.markExhausted(fs)

	assert.True(t, tr.IsExhausted(fs))
	assert.False(t, tr.IsPending(fs))
	for _, desired := range []int{1, 10, 100, 1000} {
		assert.False(t, tr.RequestMore(fs, desired, -1))
		assert.False(t, tr.RequestMore(fs, desired, 0))
	}

	tr.Reset()
	assert.False(t, tr.IsExhausted(fs))
	assert.True(t, tr.RequestMore(fs, 10, -1))
}

func TestPaginationTracker_BeginDropsExhausted(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("1")

	require.True(t, tr.RequestMore(fs, 10, -1))
	tr.mu.Lock()
	tr.exhausted[fs] = struct{}{}
	tr.mu.Unlock()

	assert.False(t, tr.begin(fs))
	assert.False(t, tr.IsPending(fs))
}

func TestPaginationTracker_BeginInitialisesCounters(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("1")

	assert.False(t, tr.begin(fs), "not pending")
	assert.False(t, tr.Progress(fs).Touched)

	require.True(t, tr.RequestMore(fs, 10, -1))
	require.True(t, tr.begin(fs))
	p := tr.Progress(fs)
	assert.True(t, p.Touched)
	assert.Equal(t, 0, p.Pages)
	assert.Equal(t, 0, p.Stories)

	page, ok := tr.nextPage(fs)
	assert.True(t, ok)
	assert.Equal(t, 1, page)
}

func TestPaginationTracker_FinishKeepsRaisedTarget(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("1")

	require.True(t, tr.RequestMore(fs, 20, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 20)
	_, more := tr.nextPage(fs)
	require.False(t, more)

	// the UI asks for more between the last page and finish
	require.True(t, tr.RequestMore(fs, 40, -1))
	tr.finish(fs)

	assert.True(t, tr.IsPending(fs))
	page, ok := tr.nextPage(fs)
	assert.True(t, ok)
	assert.Equal(t, 2, page)
}

func TestPaginationTracker_ResetKeepsRequests(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.SingleFeed("1")

	require.True(t, tr.RequestMore(fs, 40, -1))
	require.True(t, tr.begin(fs))
	tr.recordPage(fs, 20)

	tr.Reset()
	p := tr.Progress(fs)
	assert.True(t, p.Pending)
	assert.False(t, p.Touched)
	assert.Equal(t, 0, p.Pages)
}

func TestPaginationTracker_PendingScopesSnapshot(t *testing.T) {
	tr := NewPaginationTracker()
	a := domain.SingleFeed("1")
	b := domain.MultipleFeeds("3", "2")

	require.True(t, tr.RequestMore(a, 10, -1))
	require.True(t, tr.RequestMore(b, 10, -1))
	require.True(t, tr.RequestMore(domain.MultipleFeeds("2", "3", "2"), 20, -1), "equal scopes share an entry")

	assert.ElementsMatch(t, []domain.FeedSet{a, b}, tr.PendingScopes())
}

func TestPaginationTracker_ConcurrentRequests(t *testing.T) {
	tr := NewPaginationTracker()
	fs := domain.AllFeeds()

	var wg stdsync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(desired int) {
			defer wg.Done()
			tr.RequestMore(fs, desired, -1)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if tr.begin(fs) {
			tr.recordPage(fs, 5)
		}
	}()
	wg.Wait()

	assert.Equal(t, 100, tr.Progress(fs).Target)
}
