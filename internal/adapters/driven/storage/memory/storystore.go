package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure StoryStore implements the interface.
var _ driven.StoryStore = (*StoryStore)(nil)

// StoryStore is an in-memory implementation of driven.StoryStore.
type StoryStore struct {
	mu      sync.RWMutex
	stories map[string]domain.Story
	texts   map[string]string
}

// NewStoryStore creates a new in-memory story store.
func NewStoryStore() *StoryStore {
	return &StoryStore{
		stories: make(map[string]domain.Story),
		texts:   make(map[string]string),
	}
}

// InsertStories upserts a page of stories. A story that was already active
// stays active.
func (s *StoryStore) InsertStories(
	_ context.Context,
	page *domain.StoriesPage,
	mode domain.ActivationMode,
	cutoff time.Time,
) error {
	if !page.Valid() {
		return domain.ErrMalformedResponse
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, story := range page.Stories {
		story.Active = mode.Activates(story.Timestamp, cutoff)
		if existing, ok := s.stories[story.Hash]; ok {
			story.Active = story.Active || existing.Active
			story.Shared = story.Shared || existing.Shared
			if story.ShareComment == "" {
				story.ShareComment = existing.ShareComment
			}
		}
		s.stories[story.Hash] = story
	}
	return nil
}

// SetStoriesRead sets the read state of stories. Unknown hashes are ignored.
func (s *StoryStore) SetStoriesRead(_ context.Context, hashes []string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, hash := range hashes {
		if story, ok := s.stories[hash]; ok {
			story.Read = read
			s.stories[hash] = story
		}
	}
	return nil
}

// MarkFeedsRead marks every story of the feeds read within the window.
func (s *StoryStore) MarkFeedsRead(_ context.Context, feedIDs []string, olderThan, newerThan time.Time) error {
	feeds := make(map[string]struct{}, len(feedIDs))
	for _, id := range feedIDs {
		feeds[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, story := range s.stories {
		if _, ok := feeds[story.FeedID]; !ok {
			continue
		}
		if !olderThan.IsZero() && story.Timestamp.After(olderThan) {
			continue
		}
		if !newerThan.IsZero() && story.Timestamp.Before(newerThan) {
			continue
		}
		story.Read = true
		s.stories[hash] = story
	}
	return nil
}

// SetStarred sets the saved state and user tags of a story.
func (s *StoryStore) SetStarred(_ context.Context, hash string, starred bool, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	story, ok := s.stories[hash]
	if !ok {
		return nil
	}
	story.Starred = starred
	story.UserTags = append([]string(nil), tags...)
	s.stories[hash] = story
	return nil
}

// MarkShared records that the user shared a story.
func (s *StoryStore) MarkShared(_ context.Context, hash, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	story, ok := s.stories[hash]
	if !ok {
		return nil
	}
	story.Shared = true
	story.ShareComment = comment
	s.stories[hash] = story
	return nil
}

// GetStory retrieves a story by hash.
func (s *StoryStore) GetStory(_ context.Context, hash string) (*domain.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	story, ok := s.stories[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &story, nil
}

// CountStories returns the number of stored stories.
func (s *StoryStore) CountStories(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stories), nil
}

// CleanupStories drops read stories unless keepOld is set. Saved stories
// are always kept.
func (s *StoryStore) CleanupStories(_ context.Context, keepOld bool) error {
	if keepOld {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, story := range s.stories {
		if story.Read && !story.Starred {
			delete(s.stories, hash)
		}
	}
	return nil
}

// CleanupStoryText drops cached text of stories no longer stored.
func (s *StoryStore) CleanupStoryText(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash := range s.texts {
		if _, ok := s.stories[hash]; !ok {
			delete(s.texts, hash)
		}
	}
	return nil
}

// PutStoryText caches the original text of a story.
func (s *StoryStore) PutStoryText(_ context.Context, hash, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[hash] = text
	return nil
}

// StoryText returns the cached original text of a story.
func (s *StoryStore) StoryText(_ context.Context, hash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.texts[hash]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}
