package newsblur

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// RootFolder is the folder name under which root-level feeds are reported.
// It trims to the empty root folder name.
const RootFolder = " "

// folderSeparator joins the names of nested folders.
const folderSeparator = " - "

// flexID decodes an id sent either as a JSON number or a string.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id %s: %w", data, err)
	}
	*id = flexID(n.String())
	return nil
}

// flexBool decodes a boolean sent as true/false, 0/1 or null.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// errorList decodes server errors sent as a string list, a field map or a
// single string.
type errorList json.RawMessage

func (e *errorList) UnmarshalJSON(data []byte) error {
	*e = append((*e)[:0], data...)
	return nil
}

func (e errorList) list() []string {
	if len(e) == 0 || string(e) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(e, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(e, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var fields map[string][]string
	if err := json.Unmarshal(e, &fields); err == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, msg := range fields[k] {
				list = append(list, k+": "+msg)
			}
		}
		return list
	}
	return []string{string(e)}
}

// ==================== Action responses ====================

type actionResponse struct {
	Authenticated bool      `json:"authenticated"`
	Code          int       `json:"code"`
	Message       string    `json:"message"`
	Errors        errorList `json:"errors"`
	Result        string    `json:"result"`
}

func (r *actionResponse) toDomain() *domain.APIResponse {
	return &domain.APIResponse{
		Authenticated: r.Authenticated,
		Code:          r.Code,
		Message:       r.Message,
		Errors:        r.Errors.list(),
	}
}

// ==================== Feeds and folders ====================

type feedsResponse struct {
	Authenticated bool                `json:"authenticated"`
	IsStaff       flexBool            `json:"is_staff"`
	UserProfile   userProfile         `json:"user_profile"`
	Folders       json.RawMessage     `json:"folders"`
	Feeds         map[string]feedJSON `json:"feeds"`
	SocialFeeds   []socialFeedJSON    `json:"social_feeds"`
	StarredCount  int                 `json:"starred_count"`
}

type userProfile struct {
	IsPremium flexBool `json:"is_premium"`
}

type feedJSON struct {
	ID         flexID   `json:"id"`
	Title      string   `json:"feed_title"`
	Address    string   `json:"feed_address"`
	Link       string   `json:"feed_link"`
	FaviconURL string   `json:"favicon_url"`
	Active     flexBool `json:"active"`
	Positive   int      `json:"ps"`
	Neutral    int      `json:"nt"`
	Negative   int      `json:"ng"`
}

type socialFeedJSON struct {
	UserID   flexID `json:"user_id"`
	Username string `json:"username"`
	Title    string `json:"feed_title"`
	PhotoURL string `json:"photo_url"`
	Positive int    `json:"ps"`
	Neutral  int    `json:"nt"`
	Negative int    `json:"ng"`
}

func (r *feedsResponse) toDomain() (*domain.FolderMapping, error) {
	if !r.Authenticated {
		return &domain.FolderMapping{Authenticated: false}, nil
	}
	if r.Feeds == nil || len(r.Folders) == 0 {
		return nil, fmt.Errorf("%w: feeds response lacks feeds or folders", domain.ErrMalformedResponse)
	}

	folders := make(map[string][]string)
	if err := flattenFolders(r.Folders, "", folders); err != nil {
		return nil, fmt.Errorf("%w: folders: %v", domain.ErrMalformedResponse, err)
	}

	feeds := make(map[string]domain.Feed, len(r.Feeds))
	for key, f := range r.Feeds {
		id := string(f.ID)
		if id == "" {
			id = key
		}
		feeds[key] = domain.Feed{
			ID:            id,
			Title:         f.Title,
			Address:       f.Address,
			Link:          f.Link,
			FaviconURL:    f.FaviconURL,
			Active:        bool(f.Active),
			PositiveCount: f.Positive,
			NeutralCount:  f.Neutral,
			NegativeCount: f.Negative,
		}
	}

	social := make([]domain.SocialFeed, 0, len(r.SocialFeeds))
	for _, sf := range r.SocialFeeds {
		social = append(social, domain.SocialFeed{
			UserID:        string(sf.UserID),
			Username:      sf.Username,
			Title:         sf.Title,
			PhotoURL:      sf.PhotoURL,
			PositiveCount: sf.Positive,
			NeutralCount:  sf.Neutral,
			NegativeCount: sf.Negative,
		})
	}

	return &domain.FolderMapping{
		Authenticated: true,
		Premium:       bool(r.UserProfile.IsPremium),
		Staff:         bool(r.IsStaff),
		Folders:       folders,
		Feeds:         feeds,
		SocialFeeds:   social,
		StarredCount:  r.StarredCount,
	}, nil
}

// flattenFolders walks the nested folder array, where each element is a feed
// id or an object mapping a subfolder name to its own array. Feeds are
// recorded under their folder's full name, root feeds under RootFolder.
func flattenFolders(raw json.RawMessage, prefix string, out map[string][]string) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	name := prefix
	if name == "" {
		name = RootFolder
	}
	if _, ok := out[name]; !ok {
		out[name] = []string{}
	}

	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var sub map[string]json.RawMessage
			if err := json.Unmarshal(item, &sub); err != nil {
				return err
			}
			for subName, children := range sub {
				full := subName
				if prefix != "" {
					full = prefix + folderSeparator + subName
				}
				if err := flattenFolders(children, full, out); err != nil {
					return err
				}
			}
			continue
		}
		var id flexID
		if err := json.Unmarshal(item, &id); err != nil {
			return err
		}
		out[name] = append(out[name], string(id))
	}
	return nil
}

// ==================== Stories ====================

type storiesResponse struct {
	Authenticated bool        `json:"authenticated"`
	Stories       []storyJSON `json:"stories"`
}

type storyJSON struct {
	Hash          string   `json:"story_hash"`
	FeedID        flexID   `json:"story_feed_id"`
	Title         string   `json:"story_title"`
	Permalink     string   `json:"story_permalink"`
	Authors       string   `json:"story_authors"`
	Content       string   `json:"story_content"`
	Tags          []string `json:"story_tags"`
	UserTags      []string `json:"user_tags"`
	Timestamp     flexID   `json:"story_timestamp"`
	ReadStatus    flexBool `json:"read_status"`
	Starred       flexBool `json:"starred"`
	Shared        flexBool `json:"shared"`
	ShareComments string   `json:"shared_comments"`
}

func (r *storiesResponse) toDomain() (*domain.StoriesPage, error) {
	if r.Stories == nil {
		// preserved as nil: the page is malformed
		return &domain.StoriesPage{Authenticated: r.Authenticated}, nil
	}
	page := &domain.StoriesPage{
		Authenticated: r.Authenticated,
		Stories:       make([]domain.Story, 0, len(r.Stories)),
	}
	for _, s := range r.Stories {
		if strings.TrimSpace(s.Hash) == "" {
			return nil, fmt.Errorf("%w: story without hash", domain.ErrMalformedResponse)
		}
		ts, err := parseTimestamp(string(s.Timestamp))
		if err != nil {
			return nil, fmt.Errorf("%w: story %s: %v", domain.ErrMalformedResponse, s.Hash, err)
		}
		page.Stories = append(page.Stories, domain.Story{
			Hash:         s.Hash,
			FeedID:       string(s.FeedID),
			Title:        s.Title,
			Permalink:    s.Permalink,
			Authors:      s.Authors,
			Content:      s.Content,
			Tags:         s.Tags,
			UserTags:     s.UserTags,
			Timestamp:    ts,
			Read:         bool(s.ReadStatus),
			Starred:      bool(s.Starred),
			Shared:       bool(s.Shared),
			ShareComment: s.ShareComments,
		})
	}
	return page, nil
}

// parseTimestamp parses Unix seconds. An empty value is the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
