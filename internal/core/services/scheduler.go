package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is the number of task results kept per task.
const historyKeep = 100

// Scheduler fires periodic tasks while the daemon runs. Task timers are
// persisted so a restarted daemon picks up where it left off.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	sync   driving.SyncService

	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncService driving.SyncService,
) *Scheduler {
	return &Scheduler{
		config: config,
		store:  store,
		sync:   syncService,
		tick:   time.Minute,
		now:    time.Now,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("scheduler disabled")
	} else if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// RunNow executes a task immediately and waits for it, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	return s.execute(ctx, task)
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDFeedSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDFeedSync, "Feed Sync", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	if s.config.Enabled {
		s.checkAndRunDueTasks(ctx)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			if s.config.Enabled {
				s.checkAndRunDueTasks(ctx)
			}
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.execute(ctx, task); err != nil {
			logger.Warn("scheduler: task %s failed: %v", task.ID, err)
		}
	}()
}

// execute runs a task and records its outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) error {
	result := domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDFeedSync:
		result.TriggerID, err = s.runFeedSync(ctx)
	default:
		return fmt.Errorf("%w: unknown task %s", domain.ErrInvalidInput, task.ID)
	}

	result.EndedAt = s.now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	task.Complete(result)

	if result.Skipped() {
		logger.Debug("scheduler: %s skipped, sync refused", task.ID)
	}
	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, &result); recordErr != nil {
		logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
		logger.Error("scheduler: failed to prune history: %v", pruneErr)
	}
	return err
}

// runFeedSync triggers a sync run and waits for the lane to drain. It
// returns the id of the run, or 0 when the coordinator refused it.
func (s *Scheduler) runFeedSync(ctx context.Context) (int64, error) {
	if s.sync == nil {
		return 0, nil
	}
	id := s.sync.Trigger("scheduled")
	if id == 0 {
		return 0, nil
	}
	if err := s.sync.Wait(ctx); err != nil {
		return id, fmt.Errorf("wait for sync %d: %w", id, err)
	}
	return id, nil
}
