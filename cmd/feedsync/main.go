// Command feedsync keeps a local store in sync with a NewsBlur account.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/newsblur"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/platform"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/feedsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/services"
	"github.com/custodia-labs/feedsync/internal/logger"
	"github.com/custodia-labs/feedsync/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	prefs := file.NewPreferences(configStore, domain.DefaultSyncConfig(), version)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewSyncMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	opts := []newsblur.Option{
		newsblur.WithSessionCookie(prefs.SessionCookie()),
		newsblur.WithUserAgent("feedsync/" + version),
	}
	if token := prefs.SessionToken(); token != "" {
		opts = append(opts, newsblur.WithTokenSource(
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		))
	}
	client := newsblur.NewClient(prefs.ServerURL(), opts...)

	activity := &platform.ActivityCounter{}
	coordinator := services.NewSyncCoordinator(
		prefs.SyncConfig(),
		client,
		services.SyncStores{
			Actions:     store.ActionStore(),
			Stories:     store.StoryStore(),
			Feeds:       store.FeedStore(),
			Maintenance: store,
		},
		services.SyncEnvironment{
			Preferences:  prefs,
			Connectivity: platform.NewHeadCheck(prefs.ServerURL(), 0, nil),
			Activities:   activity,
			Notifier:     platform.NewBroadcaster(),
			Session:      prefs,
		},
		services.Companions{},
		metrics,
	)
	coordinator.SetIdleHook(func(triggerID int64) {
		logger.Debug("sync idle after trigger %d", triggerID)
	})

	scheduler := services.NewScheduler(prefs.SchedulerConfig(), store.SchedulerStore(), coordinator)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sync:          coordinator,
		Scheduler:     scheduler,
		Authenticator: client,
		Sessions:      prefs,
		Activity:      activity,
		Config:        configStore,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Shutdown:      coordinator.Shutdown,
	})

	return cli.Execute()
}
