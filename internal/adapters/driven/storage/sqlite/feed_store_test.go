package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

func sampleSet() domain.FeedFolderSet {
	return domain.FeedFolderSet{
		Feeds: []domain.Feed{
			{ID: "2", Title: "Two", Address: "https://two.example/rss", Active: true, NeutralCount: 4},
			{ID: "1", Title: "One", Link: "https://one.example", FaviconURL: "https://one.example/f.ico", Active: true},
		},
		Folders: []domain.Folder{{Name: "tech"}},
		Memberships: []domain.FolderFeed{
			{FolderName: "", FeedID: "1"},
			{FolderName: "tech", FeedID: "2"},
			{FolderName: "tech", FeedID: "1"},
		},
		SocialFeeds: []domain.SocialFeed{{UserID: "u1", Username: "ada", PositiveCount: 2}},
	}
}

func TestFeedStore_ReplaceAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	feeds := store.FeedStore()

	require.NoError(t, feeds.ReplaceFeedsFolders(ctx, sampleSet()))

	list, err := feeds.ListFeeds(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "One", list[0].Title)
	assert.Equal(t, "https://one.example", list[0].Link)
	assert.Equal(t, "https://one.example/f.ico", list[0].FaviconURL)
	assert.True(t, list[0].Active)
	assert.Equal(t, "2", list[1].ID)
	assert.Equal(t, "https://two.example/rss", list[1].Address)
	assert.Equal(t, 4, list[1].NeutralCount)

	tech, err := feeds.FolderFeeds(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tech)

	root, err := feeds.FolderFeeds(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, root)

	var social int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM social_feeds").Scan(&social))
	assert.Equal(t, 1, social)
}

func TestFeedStore_ReplaceDropsPrevious(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	feeds := store.FeedStore()

	require.NoError(t, feeds.ReplaceFeedsFolders(ctx, sampleSet()))
	require.NoError(t, feeds.ReplaceFeedsFolders(ctx, domain.FeedFolderSet{
		Feeds:       []domain.Feed{{ID: "3", Title: "Three", Active: true}},
		Memberships: []domain.FolderFeed{{FolderName: "", FeedID: "3"}},
	}))

	list, err := feeds.ListFeeds(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].ID)

	tech, err := feeds.FolderFeeds(ctx, "tech")
	require.NoError(t, err)
	assert.Empty(t, tech)

	var folders, social int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM folders").Scan(&folders))
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM social_feeds").Scan(&social))
	assert.Zero(t, folders)
	assert.Zero(t, social)
}

func TestFeedStore_ReplaceIsAtomic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	feeds := store.FeedStore()

	require.NoError(t, feeds.ReplaceFeedsFolders(ctx, sampleSet()))

	// A duplicate feed id violates the primary key half way through
	err := feeds.ReplaceFeedsFolders(ctx, domain.FeedFolderSet{
		Feeds: []domain.Feed{{ID: "9"}, {ID: "9"}},
	})
	require.Error(t, err)

	list, err := feeds.ListFeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFeedStore_ListEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	list, err := store.FeedStore().ListFeeds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFeedStore_StarredCount(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	feeds := store.FeedStore()

	count, err := feeds.StarredCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, feeds.UpdateStarredCount(ctx, 12))
	require.NoError(t, feeds.UpdateStarredCount(ctx, 13))

	count, err = feeds.StarredCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, count)
}
