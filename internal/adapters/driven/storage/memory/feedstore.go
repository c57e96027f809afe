package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure FeedStore implements the interfaces.
var (
	_ driven.FeedStore        = (*FeedStore)(nil)
	_ driven.MaintenanceStore = (*FeedStore)(nil)
)

// FeedStore is an in-memory implementation of driven.FeedStore.
// It also counts Vacuum calls, which are otherwise no-ops.
type FeedStore struct {
	mu      sync.RWMutex
	set     domain.FeedFolderSet
	starred int
	vacuums int
}

// NewFeedStore creates a new in-memory feed store.
func NewFeedStore() *FeedStore {
	return &FeedStore{}
}

// ReplaceFeedsFolders replaces the whole snapshot.
func (s *FeedStore) ReplaceFeedsFolders(_ context.Context, set domain.FeedFolderSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = domain.FeedFolderSet{
		Feeds:       append([]domain.Feed(nil), set.Feeds...),
		Folders:     append([]domain.Folder(nil), set.Folders...),
		Memberships: append([]domain.FolderFeed(nil), set.Memberships...),
		SocialFeeds: append([]domain.SocialFeed(nil), set.SocialFeeds...),
	}
	return nil
}

// ListFeeds returns every stored feed ordered by id.
func (s *FeedStore) ListFeeds(_ context.Context) ([]domain.Feed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feeds := append([]domain.Feed(nil), s.set.Feeds...)
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].ID < feeds[j].ID })
	return feeds, nil
}

// FolderFeeds returns the feed ids of a folder ordered by id.
func (s *FeedStore) FolderFeeds(_ context.Context, folder string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, m := range s.set.Memberships {
		if m.FolderName == folder {
			ids = append(ids, m.FeedID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Snapshot returns a copy of the stored set.
func (s *FeedStore) Snapshot() domain.FeedFolderSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FeedFolderSet{
		Feeds:       append([]domain.Feed(nil), s.set.Feeds...),
		Folders:     append([]domain.Folder(nil), s.set.Folders...),
		Memberships: append([]domain.FolderFeed(nil), s.set.Memberships...),
		SocialFeeds: append([]domain.SocialFeed(nil), s.set.SocialFeeds...),
	}
}

// UpdateStarredCount records the number of saved stories.
func (s *FeedStore) UpdateStarredCount(_ context.Context, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starred = count
	return nil
}

// StarredCount returns the recorded number of saved stories.
func (s *FeedStore) StarredCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.starred, nil
}

// Vacuum counts the call.
func (s *FeedStore) Vacuum(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vacuums++
	return nil
}

// Vacuums returns the number of Vacuum calls.
func (s *FeedStore) Vacuums() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vacuums
}
