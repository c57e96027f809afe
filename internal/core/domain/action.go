package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind identifies a queued reading action.
type ActionKind string

// Reading action kinds.
const (
	ActionMarkStoryRead   ActionKind = "mark_story_read"
	ActionMarkStoryUnread ActionKind = "mark_story_unread"
	ActionMarkFeedRead    ActionKind = "mark_feed_read"
	ActionSaveStory       ActionKind = "save_story"
	ActionUnsaveStory     ActionKind = "unsave_story"
	ActionShareStory      ActionKind = "share_story"
)

// ReadingAction is a local user mutation awaiting replay against the server.
type ReadingAction struct {
	// ID is the stable queue identifier.
	ID string `json:"id"`

	Kind ActionKind `json:"kind"`

	// CreatedAt is when the user performed the action.
	CreatedAt time.Time `json:"created_at"`

	StoryHash string `json:"story_hash,omitempty"`
	FeedID    string `json:"feed_id,omitempty"`

	// FeedIDs are the feeds affected by ActionMarkFeedRead.
	FeedIDs []string `json:"feed_ids,omitempty"`

	// OlderThan and NewerThan bound ActionMarkFeedRead. Zero means unbounded.
	OlderThan time.Time `json:"older_than,omitzero"`
	NewerThan time.Time `json:"newer_than,omitzero"`

	// Tags are the user tags of ActionSaveStory.
	Tags []string `json:"tags,omitempty"`

	// Comment is the share comment of ActionShareStory.
	Comment string `json:"comment,omitempty"`
}

// QueuedAction is a persisted action row as read from the queue.
type QueuedAction struct {
	ID      string
	Payload []byte
}

// Validate checks that the action carries the fields its kind needs.
func (a *ReadingAction) Validate() error {
	switch a.Kind {
	case ActionMarkStoryRead, ActionMarkStoryUnread, ActionSaveStory, ActionUnsaveStory:
		if a.StoryHash == "" {
			return fmt.Errorf("%w: %s requires a story hash", ErrMalformedAction, a.Kind)
		}
	case ActionShareStory:
		if a.StoryHash == "" || a.FeedID == "" {
			return fmt.Errorf("%w: %s requires a story hash and feed", ErrMalformedAction, a.Kind)
		}
	case ActionMarkFeedRead:
		if len(a.FeedIDs) == 0 {
			return fmt.Errorf("%w: %s requires at least one feed", ErrMalformedAction, a.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedAction, a.Kind)
	}
	return nil
}

// Encode serialises the action for the persistent queue.
func (a *ReadingAction) Encode() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// Decode reconstructs the action from a queue row. Any failure wraps
// ErrMalformedAction.
func (q QueuedAction) Decode() (ReadingAction, error) {
	var a ReadingAction
	if err := json.Unmarshal(q.Payload, &a); err != nil {
		return ReadingAction{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if err := a.Validate(); err != nil {
		return ReadingAction{}, err
	}
	a.ID = q.ID
	return a, nil
}

// APIResponse is the generic envelope of an action call.
type APIResponse struct {
	Authenticated bool
	Code          int
	Message       string
	Errors        []string
}

// IsError reports whether the server rejected the request at application level.
func (r *APIResponse) IsError() bool {
	if r == nil {
		return false
	}
	return r.Code < 0 || len(r.Errors) > 0 || !r.Authenticated
}

// ErrorMessage returns a printable description of an error response.
func (r *APIResponse) ErrorMessage() string {
	if r == nil {
		return ""
	}
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	if r.Message != "" {
		return r.Message
	}
	if !r.Authenticated {
		return "not authenticated"
	}
	return fmt.Sprintf("error code %d", r.Code)
}
