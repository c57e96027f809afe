package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/logger"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "feedsync",
	Short: "Background sync for NewsBlur feeds",
	Long: `feedsync keeps a local copy of your NewsBlur feeds, folders and stories
in sync with the server, and replays reading actions made offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
