package newsblur

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// FetchStoriesPage fetches one page of stories for a feed set.
func (c *Client) FetchStoriesPage(
	ctx context.Context,
	fs domain.FeedSet,
	page int,
	order domain.StoryOrder,
	filter domain.ReadFilter,
) (*domain.StoriesPage, error) {
	path, params, err := storiesRequest(fs)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if order != "" {
		params.Set("order", string(order))
	}
	if filter != "" {
		params.Set("read_filter", string(filter))
	}
	if q := fs.SearchQuery(); q != "" {
		params.Set("query", q)
	}

	var body storiesResponse
	if _, err := c.do(ctx, http.MethodGet, path, params, &body); err != nil {
		return nil, fmt.Errorf("fetch stories %s page %d: %w", fs, page, err)
	}
	return body.toDomain()
}

// storiesRequest maps a feed set onto its listing endpoint.
func storiesRequest(fs domain.FeedSet) (string, url.Values, error) {
	params := url.Values{}
	switch fs.Kind() {
	case domain.FeedSetSingle:
		return "/reader/feed/" + url.PathEscape(fs.ID()), params, nil
	case domain.FeedSetMultiple, domain.FeedSetFolder:
		for _, id := range fs.FeedIDs() {
			params.Add("feeds", id)
		}
		return "/reader/river_stories", params, nil
	case domain.FeedSetAllFeeds:
		return "/reader/river_stories", params, nil
	case domain.FeedSetSocial:
		return "/social/stories/" + url.PathEscape(fs.ID()) + "/", params, nil
	case domain.FeedSetAllSocial:
		return "/social/river_stories", params, nil
	case domain.FeedSetGlobal:
		params.Set("global_feed", "true")
		return "/social/river_stories", params, nil
	case domain.FeedSetSaved:
		if fs.ID() != "" {
			params.Set("tag", fs.ID())
		}
		return "/reader/starred_stories", params, nil
	case domain.FeedSetRead:
		return "/reader/read_stories", params, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported feed set %q", domain.ErrInvalidInput, fs.Kind())
	}
}
