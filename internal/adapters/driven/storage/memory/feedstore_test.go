package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

func TestFeedStore_ReplaceFeedsFolders(t *testing.T) {
	store := NewFeedStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceFeedsFolders(ctx, domain.FeedFolderSet{
		Feeds:   []domain.Feed{{ID: "2", Title: "Two"}, {ID: "1", Title: "One"}},
		Folders: []domain.Folder{{Name: "tech"}},
	}))

	feeds, err := store.ListFeeds(ctx)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "1", feeds[0].ID)
	assert.Equal(t, "2", feeds[1].ID)

	// a second write replaces, never merges
	require.NoError(t, store.ReplaceFeedsFolders(ctx, domain.FeedFolderSet{
		Feeds: []domain.Feed{{ID: "3"}},
	}))
	snap := store.Snapshot()
	require.Len(t, snap.Feeds, 1)
	assert.Equal(t, "3", snap.Feeds[0].ID)
	assert.Empty(t, snap.Folders)
}

func TestFeedStore_FolderFeeds(t *testing.T) {
	store := NewFeedStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceFeedsFolders(ctx, domain.FeedFolderSet{
		Feeds:   []domain.Feed{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		Folders: []domain.Folder{{Name: "tech"}},
		Memberships: []domain.FolderFeed{
			{FolderName: "tech", FeedID: "3"},
			{FolderName: "", FeedID: "2"},
			{FolderName: "tech", FeedID: "1"},
		},
	}))

	tech, err := store.FolderFeeds(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, tech)

	root, err := store.FolderFeeds(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, root)

	none, err := store.FolderFeeds(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFeedStore_StarredCount(t *testing.T) {
	store := NewFeedStore()
	ctx := context.Background()

	require.NoError(t, store.UpdateStarredCount(ctx, 17))
	count, err := store.StarredCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 17, count)
}

func TestFeedStore_Vacuum(t *testing.T) {
	store := NewFeedStore()

	require.NoError(t, store.Vacuum(context.Background()))
	require.NoError(t, store.Vacuum(context.Background()))
	assert.Equal(t, 2, store.Vacuums())
}
