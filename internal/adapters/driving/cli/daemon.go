package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/logger"
)

// metricsShutdownTimeout bounds the metrics server shutdown.
const metricsShutdownTimeout = 5 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled background sync",
	Long: `Runs the scheduler in the foreground, triggering a sync every scheduler
interval. Configuration file edits are picked up without a restart. With
--metrics-addr, Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var daemonMetricsAddr string

func init() {
	daemonCmd.Flags().StringVar(
		&daemonMetricsAddr, "metrics-addr", "", "Address to serve /metrics on, e.g. 127.0.0.1:9464")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	logger.SetTimestamps(true)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := startMetricsServer(daemonMetricsAddr)

	if configWatcher != nil {
		go func() {
			err := configWatcher.Watch(ctx, func() {
				logger.Info("configuration changed")
				syncService.Trigger("config")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watch stopped: %v", err)
			}
		}()
	}

	syncService.Trigger("daemon")
	cmd.Println("Daemon running. Press Ctrl+C to stop.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stop()

	cmd.Println("Shutting down...")
	if err := scheduler.Stop(); err != nil {
		logger.Warn("scheduler stop: %v", err)
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown: %v", err)
		}
		cancel()
	}
	if shutdownSync != nil {
		if err := shutdownSync(context.Background()); err != nil {
			logger.Warn("%v", err)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// startMetricsServer serves the metrics handler at addr/metrics. Returns nil
// when metrics are disabled.
func startMetricsServer(addr string) *http.Server {
	if addr == "" || metricsHandler == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	return srv
}
