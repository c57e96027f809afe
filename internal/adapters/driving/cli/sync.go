package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

// progressInterval is how often a waiting command polls the status.
const progressInterval = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync [scope...]",
	Short: "Synchronise feeds and stories",
	Long: `Triggers a sync run: queued reading actions are replayed, requested
story pages are fetched and feeds and folders are refreshed when due.

Scopes request a page of stories for each feed set before the run, e.g.
feed:42, folder:Tech, social:1234, all, allsocial, saved:later, read, global.`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync status",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

// Flags for sync.
var (
	syncForceMetadata bool
	syncNoWait        bool
	syncTimeout       time.Duration
	syncCount         int
)

func init() {
	syncCmd.Flags().BoolVar(
		&syncForceMetadata, "metadata", false, "Refresh feeds and folders even if not due")
	syncCmd.Flags().BoolVar(
		&syncNoWait, "no-wait", false, "Return as soon as the run is triggered")
	syncCmd.Flags().DurationVar(
		&syncTimeout, "timeout", 10*time.Minute, "Maximum time to wait for the run")
	syncCmd.Flags().IntVar(
		&syncCount, "count", 25, "Number of stories to request per scope")

	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	scopes := make([]domain.FeedSet, 0, len(args))
	for _, arg := range args {
		fs, err := domain.ParseFeedSet(arg)
		if err != nil {
			return err
		}
		scopes = append(scopes, fs)
	}
	for _, fs := range scopes {
		syncService.RequestMore(fs, syncCount, -1)
	}
	if syncForceMetadata {
		syncService.ForceMetadataRefresh()
	}

	done := foreground()
	defer done()

	return triggerAndWait(cmd, syncService, "cli")
}

// triggerAndWait triggers a run and, unless --no-wait was given, waits for
// it while printing status changes.
func triggerAndWait(cmd *cobra.Command, svc driving.SyncService, reason string) error {
	id := svc.Trigger(reason)
	if id == 0 {
		cmd.Println("Sync skipped: offline sync is disabled.")
		return nil
	}
	cmd.Printf("Sync %d started.\n", id)
	if syncNoWait {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
	defer cancel()
	if err := waitWithProgress(ctx, cmd, svc); err != nil {
		return fmt.Errorf("sync did not finish: %w", err)
	}

	cmd.Println("Sync complete.")
	return nil
}

// waitWithProgress waits for the service to go idle, printing each new
// status message.
func waitWithProgress(ctx context.Context, cmd *cobra.Command, svc driving.SyncService) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Wait(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			if msg, ok := svc.StatusMessage(); ok && msg != last {
				cmd.Printf("  %s\n", msg)
				last = msg
			}
		}
	}
}

func runSyncStatus(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	if msg, ok := syncService.StatusMessage(); ok {
		cmd.Printf("Status:  %s\n", msg)
	} else if syncService.IsBusy() {
		cmd.Println("Status:  busy")
	} else {
		cmd.Println("Status:  idle")
	}

	session := syncService.Session()
	if session.Premium == nil {
		cmd.Println("Account: not refreshed yet")
		return nil
	}
	account := "standard"
	if *session.Premium {
		account = "premium"
	}
	if session.Staff != nil && *session.Staff {
		account += ", staff"
	}
	cmd.Printf("Account: %s\n", account)
	cmd.Printf("Feeds:   %s ms\n", session.SpeedInfo())
	return nil
}
