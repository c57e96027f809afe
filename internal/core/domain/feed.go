package domain

import "strings"

// Feed is a subscribed site.
type Feed struct {
	ID         string
	Title      string
	Address    string
	Link       string
	FaviconURL string

	// Active is false for feeds the server has disabled or hidden.
	Active bool

	PositiveCount int
	NeutralCount  int
	NegativeCount int
}

// Folder is a named group of feeds. The root folder has an empty name.
type Folder struct {
	Name string
}

// FolderFeed records that a feed is a member of a folder.
type FolderFeed struct {
	FolderName string
	FeedID     string
}

// SocialFeed is a followed user's shared stories.
type SocialFeed struct {
	UserID   string
	Username string
	Title    string
	PhotoURL string

	PositiveCount int
	NeutralCount  int
	NegativeCount int
}

// FolderMapping is the full feed/folder snapshot returned by the server.
type FolderMapping struct {
	// Authenticated is false when the session is not logged in.
	Authenticated bool

	Premium bool
	Staff   bool

	// Folders maps folder names to the ids of their feeds.
	Folders map[string][]string

	// Feeds maps feed ids to feeds.
	Feeds map[string]Feed

	SocialFeeds  []SocialFeed
	StarredCount int
}

// FeedFolderSet is a validated snapshot ready to be written transactionally.
type FeedFolderSet struct {
	Feeds       []Feed
	Folders     []Folder
	Memberships []FolderFeed
	SocialFeeds []SocialFeed
}

// Validate converts the mapping into a writable set.
//
// Feeds that are not a member of any folder are dropped and returned as
// orphans. Inactive feeds are dropped silently. Folder names are trimmed and
// the root folder is not written as a folder row.
func (m *FolderMapping) Validate() (FeedFolderSet, []string) {
	var set FeedFolderSet
	foldered := make(map[string]struct{})

	for name, feedIDs := range m.Folders {
		if name == "" {
			continue
		}
		folderName := strings.TrimSpace(name)
		if folderName != "" {
			set.Folders = append(set.Folders, Folder{Name: folderName})
		}
		for _, feedID := range feedIDs {
			set.Memberships = append(set.Memberships, FolderFeed{FolderName: folderName, FeedID: feedID})
			foldered[feedID] = struct{}{}
		}
	}

	var orphans []string
	for id, feed := range m.Feeds {
		if _, ok := foldered[id]; !ok {
			orphans = append(orphans, id)
			continue
		}
		if !feed.Active {
			continue
		}
		if feed.ID == "" {
			feed.ID = id
		}
		set.Feeds = append(set.Feeds, feed)
	}

	set.SocialFeeds = append(set.SocialFeeds, m.SocialFeeds...)
	return set, orphans
}
