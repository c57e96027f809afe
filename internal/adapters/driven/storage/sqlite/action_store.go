package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// actionStore implements driven.ActionStore.
type actionStore struct {
	store *Store
}

var _ driven.ActionStore = (*actionStore)(nil)

// EnqueueAction appends an action to the queue. Re-enqueueing an id replaces
// its payload and keeps its position.
func (s *actionStore) EnqueueAction(ctx context.Context, action domain.ReadingAction) error {
	if action.ID == "" {
		return fmt.Errorf("%w: action id is required", domain.ErrInvalidInput)
	}
	payload, err := action.Encode()
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO actions (id, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, action.ID, string(payload), nullableNanos(action.CreatedAt))
	if err != nil {
		return fmt.Errorf("enqueueing action: %w", err)
	}
	return nil
}

// ListActions returns every queued action in enqueue order.
func (s *actionStore) ListActions(ctx context.Context) ([]domain.QueuedAction, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id, payload FROM actions ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []domain.QueuedAction //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		actions = append(actions, domain.QueuedAction{ID: id, Payload: []byte(payload)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return actions, nil
}

// ClearAction removes an action from the queue.
func (s *actionStore) ClearAction(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM actions WHERE id = ?", id); err != nil {
		return fmt.Errorf("clearing action: %w", err)
	}
	return nil
}
