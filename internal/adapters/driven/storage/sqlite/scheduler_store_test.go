package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

var taskEpoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func runAt(minutes int, triggerID int64) *domain.TaskResult {
	start := taskEpoch.Add(time.Duration(minutes) * time.Minute)
	return &domain.TaskResult{
		TaskID:    domain.TaskIDFeedSync,
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
		Success:   true,
		TriggerID: triggerID,
	}
}

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()

	task := &domain.ScheduledTask{
		ID:          domain.TaskIDFeedSync,
		Name:        "Feed Sync",
		Interval:    15*time.Minute + 500*time.Millisecond,
		Enabled:     true,
		LastRun:     taskEpoch.Add(123 * time.Nanosecond),
		NextRun:     taskEpoch.Add(15 * time.Minute),
		LastSuccess: taskEpoch.Add(time.Second),
	}
	require.NoError(t, tasks.SaveTask(ctx, task))

	got, err := tasks.GetTask(ctx, domain.TaskIDFeedSync)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *task, *got)
}

func TestSchedulerStore_GetTaskMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.SchedulerStore().GetTask(context.Background(), "vacuum")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTaskUpserts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()

	task := &domain.ScheduledTask{ID: domain.TaskIDFeedSync, Name: "Feed Sync", Interval: time.Hour, Enabled: true}
	require.NoError(t, tasks.SaveTask(ctx, task))

	task.Complete(domain.TaskResult{StartedAt: taskEpoch, EndedAt: taskEpoch, Error: "offline"})
	task.Enabled = false
	require.NoError(t, tasks.SaveTask(ctx, task))

	list, err := tasks.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "offline", list[0].LastError)
	assert.False(t, list[0].Enabled)
	assert.Equal(t, taskEpoch.Add(time.Hour), list[0].NextRun)
	assert.True(t, list[0].LastSuccess.IsZero())
}

func TestSchedulerStore_SaveTaskRequiresID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	tasks := store.SchedulerStore()
	assert.ErrorIs(t, tasks.SaveTask(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, tasks.SaveTask(context.Background(), &domain.ScheduledTask{}), domain.ErrInvalidInput)
}

func TestSchedulerStore_ListTasksOrdered(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()

	empty, err := tasks.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, id := range []string{"vacuum", "feed-sync", "cleanup"} {
		require.NoError(t, tasks.SaveTask(ctx, &domain.ScheduledTask{ID: id, Name: id}))
	}

	list, err := tasks.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "cleanup", list[0].ID)
	assert.Equal(t, "feed-sync", list[1].ID)
	assert.Equal(t, "vacuum", list[2].ID)
	for _, task := range list {
		assert.True(t, task.NextRun.IsZero())
		assert.True(t, task.LastRun.IsZero())
	}
}

func TestSchedulerStore_HistoryMostRecentFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()

	require.NoError(t, tasks.RecordResult(ctx, runAt(0, 1)))
	require.NoError(t, tasks.RecordResult(ctx, runAt(30, 0)))
	failed := runAt(15, 2)
	failed.Success = false
	failed.Error = "wait for sync 2: context deadline exceeded"
	require.NoError(t, tasks.RecordResult(ctx, failed))

	history, err := tasks.GetTaskHistory(ctx, domain.TaskIDFeedSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.True(t, history[0].Skipped())
	assert.Equal(t, *failed, history[1])
	assert.Equal(t, int64(1), history[2].TriggerID)
	assert.Equal(t, 3*time.Second, history[2].Duration())
}

func TestSchedulerStore_HistoryLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()
	for i := 1; i <= 5; i++ {
		require.NoError(t, tasks.RecordResult(ctx, runAt(i, int64(i))))
	}

	history, err := tasks.GetTaskHistory(ctx, domain.TaskIDFeedSync, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(5), history[0].TriggerID)
	assert.Equal(t, int64(4), history[1].TriggerID)

	none, err := tasks.GetTaskHistory(ctx, domain.TaskIDFeedSync, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	other, err := tasks.GetTaskHistory(ctx, "vacuum", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSchedulerStore_RecordResultRequiresTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	tasks := store.SchedulerStore()
	assert.ErrorIs(t, tasks.RecordResult(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, tasks.RecordResult(context.Background(), &domain.TaskResult{}), domain.ErrInvalidInput)
}

func TestSchedulerStore_PruneHistoryPerTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tasks := store.SchedulerStore()
	for i := 1; i <= 6; i++ {
		require.NoError(t, tasks.RecordResult(ctx, runAt(i, int64(i))))
	}
	vacuum := runAt(0, 0)
	vacuum.TaskID = "vacuum"
	require.NoError(t, tasks.RecordResult(ctx, vacuum))

	require.NoError(t, tasks.PruneHistory(ctx, 2))

	history, err := tasks.GetTaskHistory(ctx, domain.TaskIDFeedSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(6), history[0].TriggerID)
	assert.Equal(t, int64(5), history[1].TriggerID)

	other, err := tasks.GetTaskHistory(ctx, "vacuum", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.NoError(t, tasks.PruneHistory(ctx, 0))
	history, err = tasks.GetTaskHistory(ctx, domain.TaskIDFeedSync, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestColumnConversions(t *testing.T) {
	assert.Nil(t, nullableNanos(time.Time{}))
	assert.Equal(t, taskEpoch.UnixNano(), nullableNanos(taskEpoch))
	assert.Equal(t, int64(0), unixNanos(time.Time{}))
	assert.True(t, fromUnixNanos(0).IsZero())
	assert.Equal(t, taskEpoch, fromUnixNanos(unixNanos(taskEpoch)))

	assert.Nil(t, nullString(""))
	assert.Equal(t, "x", nullString("x"))
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}
