package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// API is the remote feed service.
//
// Every method distinguishes two failure classes: a non-nil error means the
// call produced no usable response (network, HTTP or decoding failure); a
// response whose IsError reports true means the server answered and rejected
// the request.
type API interface {
	// FetchFolderMapping returns the feed/folder snapshot. When
	// resetPagination is true the server also resets its story pagination.
	// An unauthenticated session yields a mapping with Authenticated false.
	FetchFolderMapping(ctx context.Context, resetPagination bool) (*domain.FolderMapping, error)

	// FetchStoriesPage returns one page of stories for a feed set.
	// Pages are numbered from 1.
	FetchStoriesPage(
		ctx context.Context,
		fs domain.FeedSet,
		page int,
		order domain.StoryOrder,
		filter domain.ReadFilter,
	) (*domain.StoriesPage, error)

	ActionAPI
}

// ActionAPI holds the remote calls reading actions replay.
type ActionAPI interface {
	MarkStoriesRead(ctx context.Context, hashes []string) (*domain.APIResponse, error)
	MarkStoryUnread(ctx context.Context, hash string) (*domain.APIResponse, error)
	MarkFeedsRead(ctx context.Context, feedIDs []string, olderThan, newerThan time.Time) (*domain.APIResponse, error)
	SaveStory(ctx context.Context, hash string, tags []string) (*domain.APIResponse, error)
	UnsaveStory(ctx context.Context, hash string) (*domain.APIResponse, error)
	ShareStory(ctx context.Context, hash, feedID, comment string) (*domain.APIResponse, error)
}
