package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget story pagination",
	Long: `Clears page counters and exhausted scopes so the next request starts
again from the first page.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	syncService.ResetScopeTracking()
	cmd.Println("Story pagination reset.")
	return nil
}
