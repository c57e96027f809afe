package file

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyServerURL      = "server.url"
	KeySessionCookie  = "session.cookie"
	KeySessionUser    = "session.username"
	KeySessionToken   = "session.token"
	KeyAppVersion     = "app.version"
	KeyLastSync       = "sync.last_sync"
	KeyLastVacuum     = "sync.last_vacuum"
	KeyAutoSync       = "sync.auto_sync_interval"
	KeyVacuum         = "sync.vacuum_interval"
	KeyShutdownSlack  = "sync.shutdown_slack"
	KeyOffline        = "sync.offline_enabled"
	KeyBackground     = "sync.background_network"
	KeyKeepOld        = "sync.keep_old_stories"
	KeySchedulerOn    = "scheduler.enabled"
	KeySchedulerEvery = "scheduler.interval"
	KeyStoryOrderBase = "story_order"
	KeyReadFilterBase = "read_filter"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "https://www.newsblur.com"

// Ensure Preferences implements the interfaces.
var (
	_ driven.Preferences        = (*Preferences)(nil)
	_ driven.SessionInvalidator = (*Preferences)(nil)
)

// Preferences exposes the sync preferences and timers held in a
// driven.ConfigStore. Missing values fall back to the SyncConfig defaults.
type Preferences struct {
	store      driven.ConfigStore
	defaults   domain.SyncConfig
	appVersion string
	now        func() time.Time
}

// NewPreferences creates preferences over store. appVersion is recorded by
// CheckForUpgrade.
func NewPreferences(store driven.ConfigStore, defaults domain.SyncConfig, appVersion string) *Preferences {
	return &Preferences{
		store:      store,
		defaults:   defaults,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// SyncConfig returns the sync tunables, overridden by any configured values.
func (p *Preferences) SyncConfig() domain.SyncConfig {
	cfg := p.defaults
	if d := p.store.GetDuration(KeyAutoSync); d > 0 {
		cfg.AutoSyncInterval = d
	}
	if d := p.store.GetDuration(KeyVacuum); d > 0 {
		cfg.VacuumInterval = d
	}
	if d := p.store.GetDuration(KeyShutdownSlack); d > 0 {
		cfg.ShutdownSlack = d
	}
	cfg.OfflineEnabled = p.IsOfflineEnabled()
	cfg.BackgroundNetworkAllowed = p.IsBackgroundNetworkAllowed()
	cfg.KeepOldStories = p.IsKeepOldStories()
	return cfg
}

// SchedulerConfig returns the scheduler configuration, overridden by any
// configured values.
func (p *Preferences) SchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = p.boolOr(KeySchedulerOn, cfg.Enabled)
	if d := p.store.GetDuration(KeySchedulerEvery); d > 0 {
		task := cfg.TaskConfigs[domain.TaskIDFeedSync]
		task.Interval = d
		cfg.TaskConfigs[domain.TaskIDFeedSync] = task
	}
	return cfg
}

// ServerURL returns the configured server, or DefaultServerURL.
func (p *Preferences) ServerURL() string {
	if u := p.store.GetString(KeyServerURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultServerURL
}

// StoryOrder returns the ordering configured for fs, then the default
// ordering, then OrderNewest.
func (p *Preferences) StoryOrder(fs domain.FeedSet) domain.StoryOrder {
	for _, key := range scopedKeys(KeyStoryOrderBase, fs) {
		if v := p.store.GetString(key); v != "" {
			if order, err := domain.ParseStoryOrder(v); err == nil {
				return order
			}
		}
	}
	return domain.OrderNewest
}

// SetStoryOrder configures the ordering of fs. A zero fs sets the default.
func (p *Preferences) SetStoryOrder(fs domain.FeedSet, order domain.StoryOrder) error {
	return p.store.Set(scopedKeys(KeyStoryOrderBase, fs)[0], string(order))
}

// ReadFilter returns the filter configured for fs, then the default filter,
// then FilterAll.
func (p *Preferences) ReadFilter(fs domain.FeedSet) domain.ReadFilter {
	for _, key := range scopedKeys(KeyReadFilterBase, fs) {
		if v := p.store.GetString(key); v != "" {
			if filter, err := domain.ParseReadFilter(v); err == nil {
				return filter
			}
		}
	}
	return domain.FilterAll
}

// SetReadFilter configures the read filter of fs. A zero fs sets the default.
func (p *Preferences) SetReadFilter(fs domain.FeedSet, filter domain.ReadFilter) error {
	return p.store.Set(scopedKeys(KeyReadFilterBase, fs)[0], string(filter))
}

// IsTimeToAutoSync reports whether the auto-sync interval elapsed since the
// last metadata refresh.
func (p *Preferences) IsTimeToAutoSync() bool {
	return p.elapsed(KeyLastSync, p.SyncConfig().AutoSyncInterval)
}

// UpdateLastSyncTime restarts the auto-sync timer.
func (p *Preferences) UpdateLastSyncTime() error {
	return p.store.Set(KeyLastSync, p.now().UTC())
}

// LastSyncTime returns when metadata was last refreshed, zero if never.
func (p *Preferences) LastSyncTime() time.Time {
	return p.store.GetTime(KeyLastSync)
}

// IsTimeToVacuum reports whether the vacuum interval elapsed since the last
// vacuum.
func (p *Preferences) IsTimeToVacuum() bool {
	return p.elapsed(KeyLastVacuum, p.SyncConfig().VacuumInterval)
}

// UpdateLastVacuumTime restarts the vacuum timer.
func (p *Preferences) UpdateLastVacuumTime() error {
	return p.store.Set(KeyLastVacuum, p.now().UTC())
}

// CheckForUpgrade reports whether the stored application version differs
// from the running one, and records the running version. A first run is
// not an upgrade.
func (p *Preferences) CheckForUpgrade() bool {
	stored := p.store.GetString(KeyAppVersion)
	if stored == p.appVersion {
		return false
	}
	if err := p.store.Set(KeyAppVersion, p.appVersion); err != nil {
		return false
	}
	return stored != ""
}

// IsOfflineEnabled reports whether runs may start without a foreground
// activity.
func (p *Preferences) IsOfflineEnabled() bool {
	return p.boolOr(KeyOffline, p.defaults.OfflineEnabled)
}

// IsBackgroundNetworkAllowed reports whether network phases may run without
// a foreground activity.
func (p *Preferences) IsBackgroundNetworkAllowed() bool {
	return p.boolOr(KeyBackground, p.defaults.BackgroundNetworkAllowed)
}

// IsKeepOldStories reports whether cleanup keeps read stories.
func (p *Preferences) IsKeepOldStories() bool {
	return p.boolOr(KeyKeepOld, p.defaults.KeepOldStories)
}

// SetSession records a logged-in session.
func (p *Preferences) SetSession(username, cookie string) error {
	if err := p.store.Set(KeySessionUser, username); err != nil {
		return err
	}
	return p.store.Set(KeySessionCookie, cookie)
}

// SessionCookie returns the stored session cookie, if any.
func (p *Preferences) SessionCookie() string {
	return p.store.GetString(KeySessionCookie)
}

// SessionToken returns the stored OAuth bearer token, if any.
func (p *Preferences) SessionToken() string {
	return p.store.GetString(KeySessionToken)
}

// Username returns the logged-in user, if any.
func (p *Preferences) Username() string {
	return p.store.GetString(KeySessionUser)
}

// Logout forgets the stored session.
func (p *Preferences) Logout() error {
	if err := p.store.Delete(KeySessionUser, KeySessionCookie, KeySessionToken); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (p *Preferences) boolOr(key string, fallback bool) bool {
	v, ok := p.store.Get(key)
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// elapsed reports whether interval passed since the time stored at key.
// A missing or unparsable time counts as elapsed.
func (p *Preferences) elapsed(key string, interval time.Duration) bool {
	last := p.store.GetTime(key)
	if last.IsZero() {
		return true
	}
	return !p.now().Before(last.Add(interval))
}

// scopedKeys returns the lookup keys for fs, most specific first.
func scopedKeys(base string, fs domain.FeedSet) []string {
	def := base + ".default"
	if fs.IsZero() {
		return []string{def}
	}
	return []string{base + "." + fs.Key(), def}
}
