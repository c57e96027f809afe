package cli

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

// Ensure mocks implement their interfaces.
var (
	_ driving.SyncService = (*mockSyncService)(nil)
	_ driving.Scheduler   = (*mockScheduler)(nil)
	_ Authenticator       = (*mockAuthenticator)(nil)
	_ SessionStore        = (*mockSessionStore)(nil)
	_ ActivityTracker     = (*mockActivity)(nil)
	_ ConfigWatcher       = (*mockConfigWatcher)(nil)
)

type moreRequest struct {
	fs      domain.FeedSet
	desired int
	seen    int
}

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	mu        sync.Mutex
	triggerID int64
	triggers  []string
	requests  []moreRequest
	actions   []domain.ReadingAction
	forced    bool
	resets    int
	waitErr   error
	busy      bool
	status    string
	session   domain.Session
	more      bool
	enqueueFn func(domain.ReadingAction) error
}

func newMockSyncService() *mockSyncService {
	return &mockSyncService{triggerID: 1, more: true}
}

func (m *mockSyncService) Trigger(reason string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, reason)
	return m.triggerID
}

func (m *mockSyncService) Wait(_ context.Context) error {
	return m.waitErr
}

func (m *mockSyncService) RequestMore(fs domain.FeedSet, desired, callerSeen int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, moreRequest{fs: fs, desired: desired, seen: callerSeen})
	return m.more
}

func (m *mockSyncService) ForceMetadataRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = true
}

func (m *mockSyncService) SetActivationMode(_ domain.ActivationMode, _ time.Time) {}

func (m *mockSyncService) EnqueueAction(_ context.Context, action domain.ReadingAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueFn != nil {
		if err := m.enqueueFn(action); err != nil {
			return err
		}
	}
	m.actions = append(m.actions, action)
	return nil
}

func (m *mockSyncService) SoftInterrupt() {}

func (m *mockSyncService) Resume() {}

func (m *mockSyncService) IsBusy() bool { return m.busy }

func (m *mockSyncService) StatusMessage() (string, bool) {
	return m.status, m.status != ""
}

func (m *mockSyncService) IsScopeSyncing(_ domain.FeedSet) bool { return false }

func (m *mockSyncService) ResetScopeTracking() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *mockSyncService) Session() domain.Session { return m.session }

func (m *mockSyncService) triggered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.triggers...)
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	startErr := m.startErr
	m.mu.Unlock()
	if startErr != nil {
		return startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, _ string) error { return nil }

// mockAuthenticator implements Authenticator for testing.
type mockAuthenticator struct {
	username string
	password string
	cookie   string
	err      error
}

func (m *mockAuthenticator) Login(_ context.Context, username, password string) (string, error) {
	m.username = username
	m.password = password
	return m.cookie, m.err
}

// mockSessionStore implements SessionStore for testing.
type mockSessionStore struct {
	username  string
	cookie    string
	loggedOut bool
}

func (m *mockSessionStore) SetSession(username, cookie string) error {
	m.username = username
	m.cookie = cookie
	return nil
}

func (m *mockSessionStore) Username() string { return m.username }

func (m *mockSessionStore) Logout() error {
	m.loggedOut = true
	m.username = ""
	m.cookie = ""
	return nil
}

// mockActivity implements ActivityTracker for testing.
type mockActivity struct {
	mu     sync.Mutex
	opened int
	closed int
}

func (m *mockActivity) Open() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed++
	}
}

// mockConfigWatcher implements ConfigWatcher for testing.
type mockConfigWatcher struct {
	mu      sync.Mutex
	watched bool
}

func (m *mockConfigWatcher) Watch(ctx context.Context, onChange func()) error {
	m.mu.Lock()
	m.watched = true
	m.mu.Unlock()
	onChange()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockConfigWatcher) wasWatched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watched
}

// okHandler serves a fixed metrics body.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("feedsync_runs_total 1\n"))
})

// setupServices installs s and resets flag state, returning a restore func.
func setupServices(s Services) func() {
	SetServices(s)
	syncForceMetadata = false
	syncNoWait = false
	syncTimeout = 10 * time.Minute
	syncCount = 25
	moreSeen = -1
	loginPasswordStdin = false
	queueOlderThan = 0
	queueNewerThan = 0
	queueTags = nil
	queueComment = ""
	daemonMetricsAddr = ""
	return func() {
		SetServices(Services{})
	}
}
