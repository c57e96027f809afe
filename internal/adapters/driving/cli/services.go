package cli

import (
	"context"
	"net/http"

	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

// Authenticator exchanges credentials for a session cookie.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// SessionStore persists the logged-in session.
type SessionStore interface {
	SetSession(username, cookie string) error
	Username() string
	Logout() error
}

// ActivityTracker registers the command as a foreground observer so
// triggers run even with offline sync disabled.
type ActivityTracker interface {
	Open() (closeFn func())
}

// ConfigWatcher reports edits of the configuration file.
type ConfigWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Services holds the dependencies the commands run against. Fields left nil
// disable the commands that need them.
type Services struct {
	Sync          driving.SyncService
	Scheduler     driving.Scheduler
	Authenticator Authenticator
	Sessions      SessionStore
	Activity      ActivityTracker
	Config        ConfigWatcher
	Metrics       http.Handler

	// Shutdown drains the sync service before the process exits.
	Shutdown func(ctx context.Context) error
}

// Service instances, set by SetServices.
var (
	syncService    driving.SyncService
	scheduler      driving.Scheduler
	authenticator  Authenticator
	sessionStore   SessionStore
	activity       ActivityTracker
	configWatcher  ConfigWatcher
	metricsHandler http.Handler
	shutdownSync   func(ctx context.Context) error
)

// SetServices wires the commands to their services.
func SetServices(s Services) {
	syncService = s.Sync
	scheduler = s.Scheduler
	authenticator = s.Authenticator
	sessionStore = s.Sessions
	activity = s.Activity
	configWatcher = s.Config
	metricsHandler = s.Metrics
	shutdownSync = s.Shutdown
}

// foreground marks the command as an active observer for its duration.
func foreground() func() {
	if activity == nil {
		return func() {}
	}
	return activity.Open()
}
