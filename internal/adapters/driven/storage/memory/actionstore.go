package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure ActionStore implements the interface.
var _ driven.ActionStore = (*ActionStore)(nil)

// ActionStore is an in-memory implementation of driven.ActionStore.
type ActionStore struct {
	mu      sync.RWMutex
	actions []domain.QueuedAction
}

// NewActionStore creates a new in-memory action queue.
func NewActionStore() *ActionStore {
	return &ActionStore{}
}

// EnqueueAction appends an action to the queue.
func (s *ActionStore) EnqueueAction(_ context.Context, action domain.ReadingAction) error {
	if action.ID == "" {
		return fmt.Errorf("%w: action id is required", domain.ErrInvalidInput)
	}
	payload, err := action.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.actions {
		if q.ID == action.ID {
			s.actions[i].Payload = payload
			return nil
		}
	}
	s.actions = append(s.actions, domain.QueuedAction{ID: action.ID, Payload: payload})
	return nil
}

// ListActions returns every queued action in enqueue order.
func (s *ActionStore) ListActions(_ context.Context) ([]domain.QueuedAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QueuedAction, len(s.actions))
	for i, q := range s.actions {
		out[i] = domain.QueuedAction{ID: q.ID, Payload: append([]byte(nil), q.Payload...)}
	}
	return out, nil
}

// ClearAction removes an action from the queue.
func (s *ActionStore) ClearAction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.actions {
		if q.ID == id {
			s.actions = append(s.actions[:i], s.actions[i+1:]...)
			return nil
		}
	}
	return nil
}
