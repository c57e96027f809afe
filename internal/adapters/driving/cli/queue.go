package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Queue reading actions",
	Long: `Applies a reading action to the local store and queues it for replay
against the server on the next sync run.`,
}

var queueReadCmd = &cobra.Command{
	Use:   "read <story-hash>...",
	Short: "Mark stories read",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, hash := range args {
			err := enqueue(cmd, domain.ReadingAction{Kind: domain.ActionMarkStoryRead, StoryHash: hash})
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var queueUnreadCmd = &cobra.Command{
	Use:   "unread <story-hash>",
	Short: "Mark a story unread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return enqueue(cmd, domain.ReadingAction{Kind: domain.ActionMarkStoryUnread, StoryHash: args[0]})
	},
}

var queueFeedReadCmd = &cobra.Command{
	Use:   "feed-read <feed-id>...",
	Short: "Mark whole feeds read",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queueOlderThan > 0 && queueNewerThan > 0 {
			return fmt.Errorf("%w: --older-than and --newer-than are exclusive", domain.ErrInvalidInput)
		}
		action := domain.ReadingAction{Kind: domain.ActionMarkFeedRead, FeedIDs: args}
		now := time.Now()
		if queueOlderThan > 0 {
			action.OlderThan = now.Add(-queueOlderThan)
		}
		if queueNewerThan > 0 {
			action.NewerThan = now.Add(-queueNewerThan)
		}
		return enqueue(cmd, action)
	},
}

var queueSaveCmd = &cobra.Command{
	Use:   "save <story-hash>",
	Short: "Save a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return enqueue(cmd, domain.ReadingAction{
			Kind: domain.ActionSaveStory, StoryHash: args[0], Tags: queueTags,
		})
	},
}

var queueUnsaveCmd = &cobra.Command{
	Use:   "unsave <story-hash>",
	Short: "Unsave a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return enqueue(cmd, domain.ReadingAction{Kind: domain.ActionUnsaveStory, StoryHash: args[0]})
	},
}

var queueShareCmd = &cobra.Command{
	Use:   "share <story-hash> <feed-id>",
	Short: "Share a story",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return enqueue(cmd, domain.ReadingAction{
			Kind: domain.ActionShareStory, StoryHash: args[0], FeedID: args[1], Comment: queueComment,
		})
	},
}

// Flags for queue subcommands.
var (
	queueOlderThan time.Duration
	queueNewerThan time.Duration
	queueTags      []string
	queueComment   string
)

func init() {
	queueFeedReadCmd.Flags().DurationVar(
		&queueOlderThan, "older-than", 0, "Only mark stories older than this age")
	queueFeedReadCmd.Flags().DurationVar(
		&queueNewerThan, "newer-than", 0, "Only mark stories newer than this age")
	queueSaveCmd.Flags().StringSliceVar(
		&queueTags, "tag", nil, "User tag for the saved story (repeatable)")
	queueShareCmd.Flags().StringVar(
		&queueComment, "comment", "", "Comment to share with the story")

	queueCmd.AddCommand(queueReadCmd)
	queueCmd.AddCommand(queueUnreadCmd)
	queueCmd.AddCommand(queueFeedReadCmd)
	queueCmd.AddCommand(queueSaveCmd)
	queueCmd.AddCommand(queueUnsaveCmd)
	queueCmd.AddCommand(queueShareCmd)
	rootCmd.AddCommand(queueCmd)
}

func enqueue(cmd *cobra.Command, action domain.ReadingAction) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if err := syncService.EnqueueAction(cmd.Context(), action); err != nil {
		return fmt.Errorf("queue %s: %w", action.Kind, err)
	}
	cmd.Printf("Queued %s.\n", action.Kind)
	return nil
}
