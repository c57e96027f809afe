package domain

import "time"

// TaskIDFeedSync is the periodic background sync.
const TaskIDFeedSync = "feed-sync"

// DefaultFeedSyncInterval matches the cadence of the platform job scheduler.
const DefaultFeedSyncInterval = 15 * time.Minute

// ScheduledTask is a recurring daemon task and its persisted timer.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// LastRun is when the last run started, NextRun when the next one is due.
	LastRun time.Time
	NextRun time.Time

	// LastError is the error of the last run, empty after a success.
	LastError   string
	LastSuccess time.Time
}

// Due reports whether the task should run at now. A task with no NextRun is
// always due.
func (t *ScheduledTask) Due(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// Complete folds a finished run into the task timer. The next run is
// scheduled one interval after the run ended, whether it failed or not.
func (t *ScheduledTask) Complete(r TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		return
	}
	t.LastError = r.Error
}

// TaskResult is one recorded run of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// TriggerID is the sync run the task started, or 0 when the trigger was
	// refused (offline gating, no session).
	TriggerID int64
}

// Skipped reports whether the run completed without starting a sync.
func (r TaskResult) Skipped() bool {
	return r.Success && r.TriggerID == 0
}

// Duration is the wall time of the run.
func (r TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig configures the daemon scheduler.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration of taskID, or the zero TaskConfig.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig enables the feed sync task at its default interval.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDFeedSync: {Enabled: true, Interval: DefaultFeedSyncInterval},
		},
	}
}
