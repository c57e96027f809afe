package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

var moreCmd = &cobra.Command{
	Use:   "more <scope> <count>",
	Short: "Fetch more stories for a scope",
	Long: `Requests that at least <count> stories of a scope be held locally and
runs a sync to fetch them. The scope is a feed set such as feed:42 or
folder:Tech.`,
	Args: cobra.ExactArgs(2),
	RunE: runMore,
}

var moreSeen int

func init() {
	moreCmd.Flags().IntVar(
		&moreSeen, "seen", -1, "Stories already held for the scope (default: use the service's count)")
	rootCmd.AddCommand(moreCmd)
}

func runMore(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	fs, err := domain.ParseFeedSet(args[0])
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(args[1])
	if err != nil || count < 1 {
		return fmt.Errorf("%w: count must be a positive number", domain.ErrInvalidInput)
	}

	if !syncService.RequestMore(fs, count, moreSeen) {
		cmd.Printf("Nothing to fetch for %s.\n", fs)
		return nil
	}

	done := foreground()
	defer done()

	cmd.Printf("Fetching stories for %s...\n", fs)
	return triggerAndWait(cmd, syncService, "more")
}
