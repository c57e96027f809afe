package newsblur

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// MarkStoriesRead marks stories read by hash.
func (c *Client) MarkStoriesRead(ctx context.Context, hashes []string) (*domain.APIResponse, error) {
	params := url.Values{}
	for _, h := range hashes {
		params.Add("story_hash", h)
	}
	return c.action(ctx, "/reader/mark_story_hashes_as_read", params)
}

// MarkStoryUnread marks one story unread.
func (c *Client) MarkStoryUnread(ctx context.Context, hash string) (*domain.APIResponse, error) {
	params := url.Values{}
	params.Set("story_hash", hash)
	return c.action(ctx, "/reader/mark_story_hash_as_unread", params)
}

// MarkFeedsRead marks whole feeds read, optionally bounded in time.
func (c *Client) MarkFeedsRead(ctx context.Context, feedIDs []string, olderThan, newerThan time.Time) (*domain.APIResponse, error) {
	params := url.Values{}
	for _, id := range feedIDs {
		params.Add("feed_id", id)
	}
	switch {
	case !olderThan.IsZero():
		params.Set("cutoff_timestamp", strconv.FormatInt(olderThan.Unix(), 10))
		params.Set("direction", "older")
	case !newerThan.IsZero():
		params.Set("cutoff_timestamp", strconv.FormatInt(newerThan.Unix(), 10))
		params.Set("direction", "newer")
	}
	return c.action(ctx, "/reader/mark_feed_as_read", params)
}

// SaveStory stars a story with optional user tags.
func (c *Client) SaveStory(ctx context.Context, hash string, tags []string) (*domain.APIResponse, error) {
	params := url.Values{}
	params.Set("story_hash", hash)
	for _, t := range tags {
		params.Add("user_tags", t)
	}
	return c.action(ctx, "/reader/mark_story_hash_as_starred", params)
}

// UnsaveStory unstars a story.
func (c *Client) UnsaveStory(ctx context.Context, hash string) (*domain.APIResponse, error) {
	params := url.Values{}
	params.Set("story_hash", hash)
	return c.action(ctx, "/reader/mark_story_hash_as_unstarred", params)
}

// ShareStory shares a story to the user's blurblog.
func (c *Client) ShareStory(ctx context.Context, hash, feedID, comment string) (*domain.APIResponse, error) {
	params := url.Values{}
	params.Set("story_id", hash)
	params.Set("feed_id", feedID)
	params.Set("comments", comment)
	return c.action(ctx, "/social/share_story", params)
}

// action posts a reading action. An authentication failure is reported as
// an unauthenticated response rather than an error.
func (c *Client) action(ctx context.Context, path string, params url.Values) (*domain.APIResponse, error) {
	var body actionResponse
	if _, err := c.do(ctx, http.MethodPost, path, params, &body); err != nil {
		if isUnauthenticated(err) {
			return &domain.APIResponse{Authenticated: false, Message: err.Error()}, nil
		}
		return nil, fmt.Errorf("action %s: %w", path, err)
	}
	return body.toDomain(), nil
}
