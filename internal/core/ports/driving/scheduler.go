package driving

import "context"

// Scheduler fires periodic sync tasks while the daemon runs.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler and waits for running tasks.
	Stop() error

	// RunNow executes a task immediately, outside its schedule.
	RunNow(ctx context.Context, taskID string) error
}
