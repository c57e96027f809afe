package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// ActionStore persists the queue of reading actions.
type ActionStore interface {
	// EnqueueAction appends an action to the queue.
	EnqueueAction(ctx context.Context, action domain.ReadingAction) error

	// ListActions returns every queued action in enqueue order.
	ListActions(ctx context.Context) ([]domain.QueuedAction, error)

	// ClearAction removes an action from the queue. Removing an unknown id
	// is not an error.
	ClearAction(ctx context.Context, id string) error
}

// StoryStore persists stories and applies reading actions locally.
type StoryStore interface {
	// InsertStories upserts a page of stories. Each story's Active flag is
	// derived from mode and cutoff.
	InsertStories(ctx context.Context, page *domain.StoriesPage, mode domain.ActivationMode, cutoff time.Time) error

	// SetStoriesRead sets the read state of stories.
	SetStoriesRead(ctx context.Context, hashes []string, read bool) error

	// MarkFeedsRead marks every story of the feeds read within the window.
	// Zero bounds are open.
	MarkFeedsRead(ctx context.Context, feedIDs []string, olderThan, newerThan time.Time) error

	// SetStarred sets the saved state and user tags of a story.
	SetStarred(ctx context.Context, hash string, starred bool, tags []string) error

	// MarkShared records that the user shared a story.
	MarkShared(ctx context.Context, hash, comment string) error

	// GetStory retrieves a story by hash.
	GetStory(ctx context.Context, hash string) (*domain.Story, error)

	// CountStories returns the number of stored stories.
	CountStories(ctx context.Context) (int, error)

	// CleanupStories prunes stories no longer needed. Read stories survive
	// when keepOld is true.
	CleanupStories(ctx context.Context, keepOld bool) error

	// CleanupStoryText drops cached original text of pruned stories.
	CleanupStoryText(ctx context.Context) error
}

// FeedStore persists the feed/folder snapshot.
type FeedStore interface {
	// ReplaceFeedsFolders atomically replaces every feed, folder, membership
	// and social feed with the given set.
	ReplaceFeedsFolders(ctx context.Context, set domain.FeedFolderSet) error

	// ListFeeds returns every stored feed.
	ListFeeds(ctx context.Context) ([]domain.Feed, error)

	// FolderFeeds returns the ids of the feeds filed in a folder, ordered by
	// id. The root folder is "". An unknown folder has no feeds.
	FolderFeeds(ctx context.Context, folder string) ([]string, error)

	// UpdateStarredCount records the number of saved stories.
	UpdateStarredCount(ctx context.Context, count int) error

	// StarredCount returns the recorded number of saved stories.
	StarredCount(ctx context.Context) (int, error)
}

// MaintenanceStore performs expensive storage maintenance.
type MaintenanceStore interface {
	// Vacuum rebuilds the store. It may lock the store for several seconds.
	Vacuum(ctx context.Context) error
}

// SchedulerStore persists periodic task state and run history, so that a
// restarted daemon resumes the task timers where they left off.
type SchedulerStore interface {
	// GetTask retrieves a scheduled task by ID.
	// Returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all scheduled tasks.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends a task run to the history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit recent runs of a task, most
	// recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the most recent keep runs per task.
	PruneHistory(ctx context.Context, keep int) error
}
