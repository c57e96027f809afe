package newsblur

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// FetchFolderMapping fetches the nested feed and folder listing.
func (c *Client) FetchFolderMapping(ctx context.Context, resetPagination bool) (*domain.FolderMapping, error) {
	params := url.Values{}
	params.Set("flat", "false")
	params.Set("update_counts", strconv.FormatBool(resetPagination))

	var body feedsResponse
	if _, err := c.do(ctx, http.MethodGet, "/reader/feeds", params, &body); err != nil {
		if isUnauthenticated(err) {
			return &domain.FolderMapping{Authenticated: false}, nil
		}
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}
	return body.toDomain()
}
