package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// ActionExecutor carries out the two steps of a reading action.
type ActionExecutor interface {
	// DoRemote replays the action against the server.
	DoRemote(ctx context.Context, action domain.ReadingAction) (*domain.APIResponse, error)

	// DoLocal applies the action to local storage.
	DoLocal(ctx context.Context, action domain.ReadingAction) error
}

// Ensure ReadingActionExecutor implements the interface.
var _ ActionExecutor = (*ReadingActionExecutor)(nil)

// ReadingActionExecutor maps each action kind onto its API call and its
// story store update.
type ReadingActionExecutor struct {
	api     driven.ActionAPI
	stories driven.StoryStore
}

// NewReadingActionExecutor creates an executor.
func NewReadingActionExecutor(api driven.ActionAPI, stories driven.StoryStore) *ReadingActionExecutor {
	return &ReadingActionExecutor{api: api, stories: stories}
}

// DoRemote replays the action against the server.
func (e *ReadingActionExecutor) DoRemote(ctx context.Context, a domain.ReadingAction) (*domain.APIResponse, error) {
	switch a.Kind {
	case domain.ActionMarkStoryRead:
		return e.api.MarkStoriesRead(ctx, []string{a.StoryHash})
	case domain.ActionMarkStoryUnread:
		return e.api.MarkStoryUnread(ctx, a.StoryHash)
	case domain.ActionMarkFeedRead:
		return e.api.MarkFeedsRead(ctx, a.FeedIDs, a.OlderThan, a.NewerThan)
	case domain.ActionSaveStory:
		return e.api.SaveStory(ctx, a.StoryHash, a.Tags)
	case domain.ActionUnsaveStory:
		return e.api.UnsaveStory(ctx, a.StoryHash)
	case domain.ActionShareStory:
		return e.api.ShareStory(ctx, a.StoryHash, a.FeedID, a.Comment)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrMalformedAction, a.Kind)
	}
}

// DoLocal applies the action to local storage.
func (e *ReadingActionExecutor) DoLocal(ctx context.Context, a domain.ReadingAction) error {
	switch a.Kind {
	case domain.ActionMarkStoryRead:
		return e.stories.SetStoriesRead(ctx, []string{a.StoryHash}, true)
	case domain.ActionMarkStoryUnread:
		return e.stories.SetStoriesRead(ctx, []string{a.StoryHash}, false)
	case domain.ActionMarkFeedRead:
		return e.stories.MarkFeedsRead(ctx, a.FeedIDs, a.OlderThan, a.NewerThan)
	case domain.ActionSaveStory:
		return e.stories.SetStarred(ctx, a.StoryHash, true, a.Tags)
	case domain.ActionUnsaveStory:
		return e.stories.SetStarred(ctx, a.StoryHash, false, nil)
	case domain.ActionShareStory:
		return e.stories.MarkShared(ctx, a.StoryHash, a.Comment)
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrMalformedAction, a.Kind)
	}
}

// ReplayResult counts the outcomes of a remote replay.
type ReplayResult struct {
	Replayed int
	Rejected int
	Failed   int
	Dropped  int
}

// ActionReconciler replays queued reading actions in two steps: the remote
// step during the run, and the local step once every other phase finished,
// so that a refreshed story list cannot overwrite the user's change.
type ActionReconciler struct {
	store    driven.ActionStore
	executor ActionExecutor
	guard    *KeepAliveGuard
	state    *RunState
	notifier driven.Notifier
	metrics  driven.SyncMetrics

	now   func() time.Time
	newID func() string

	mu        sync.Mutex
	followups []domain.ReadingAction
}

// NewActionReconciler creates a reconciler. notifier and metrics may be nil.
func NewActionReconciler(
	store driven.ActionStore,
	executor ActionExecutor,
	guard *KeepAliveGuard,
	state *RunState,
	notifier driven.Notifier,
	metrics driven.SyncMetrics,
) *ActionReconciler {
	return &ActionReconciler{
		store:    store,
		executor: executor,
		guard:    guard,
		state:    state,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Enqueue applies the action locally and queues it for remote replay.
func (r *ActionReconciler) Enqueue(ctx context.Context, action domain.ReadingAction) error {
	if action.ID == "" {
		action.ID = r.newID()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = r.now()
	}
	if err := action.Validate(); err != nil {
		return err
	}
	if err := r.executor.DoLocal(ctx, action); err != nil {
		return fmt.Errorf("apply action locally: %w", err)
	}
	if err := r.store.EnqueueAction(ctx, action); err != nil {
		return fmt.Errorf("enqueue action: %w", err)
	}
	logger.Debug("queued %s action %s", action.Kind, action.ID)
	return nil
}

// ReplayRemote runs the remote step of every queued action. Actions the
// server accepted are removed from the queue and held for FinalizeLocal.
// Actions that failed stay queued for the next run. Undecodable actions are
// removed and logged.
func (r *ActionReconciler) ReplayRemote(ctx context.Context) (ReplayResult, error) {
	var result ReplayResult
	if r.guard.ShouldStop() {
		return result, nil
	}

	queued, err := r.store.ListActions(ctx)
	if err != nil {
		return result, fmt.Errorf("list actions: %w", err)
	}
	if len(queued) == 0 {
		return result, nil
	}

	r.state.Set(PhaseActions, true)
	r.notify()
	defer func() {
		r.state.Set(PhaseActions, false)
		r.notify()
	}()

	var errs []error
	for _, q := range queued {
		if r.guard.ShouldStop() {
			logger.Debug("action replay interrupted")
			break
		}

		action, err := q.Decode()
		if err != nil {
			logger.Error("dropping malformed action %s: %v", q.ID, err)
			if err := r.store.ClearAction(ctx, q.ID); err != nil {
				errs = append(errs, fmt.Errorf("clear action %s: %w", q.ID, err))
			}
			result.Dropped++
			r.record("unknown", driven.OutcomeDropped)
			continue
		}

		resp, err := r.executor.DoRemote(ctx, action)
		if err != nil {
			logger.Warn("action %s (%s) failed, will retry: %v", action.ID, action.Kind, err)
			result.Failed++
			r.record(string(action.Kind), driven.OutcomeFailed)
			continue
		}
		if resp.IsError() {
			logger.Warn("action %s (%s) rejected, will retry: %s", action.ID, action.Kind, resp.ErrorMessage())
			result.Rejected++
			r.record(string(action.Kind), driven.OutcomeRejected)
			continue
		}

		if err := r.store.ClearAction(ctx, action.ID); err != nil {
			errs = append(errs, fmt.Errorf("clear action %s: %w", action.ID, err))
		}
		r.mu.Lock()
		r.followups = append(r.followups, action)
		r.mu.Unlock()
		result.Replayed++
		r.record(string(action.Kind), driven.OutcomeReplayed)
	}

	return result, errors.Join(errs...)
}

// FinalizeLocal runs the local step of every action replayed this run, in
// replay order, then empties the follow-up list. It needs no network, so
// only an interrupt postpones it.
func (r *ActionReconciler) FinalizeLocal(ctx context.Context) (int, error) {
	if r.guard.Interrupted() {
		return 0, nil
	}

	r.mu.Lock()
	followups := r.followups
	r.followups = nil
	r.mu.Unlock()

	var errs []error
	for _, action := range followups {
		if err := r.executor.DoLocal(ctx, action); err != nil {
			errs = append(errs, fmt.Errorf("finalize action %s: %w", action.ID, err))
		}
	}
	if len(followups) > 0 {
		logger.Debug("finalized %d actions", len(followups))
	}
	return len(followups), errors.Join(errs...)
}

// Followups returns a copy of the actions awaiting their local step.
func (r *ActionReconciler) Followups() []domain.ReadingAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReadingAction(nil), r.followups...)
}

func (r *ActionReconciler) notify() {
	if r.notifier != nil {
		r.notifier.StateChanged(false)
	}
}

func (r *ActionReconciler) record(kind, outcome string) {
	if r.metrics != nil {
		r.metrics.ActionReplayed(kind, outcome)
	}
}
