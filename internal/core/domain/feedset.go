package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FeedSetKind identifies what a FeedSet selects stories from.
type FeedSetKind string

// Feed set kinds.
const (
	FeedSetSingle    FeedSetKind = "feed"
	FeedSetMultiple  FeedSetKind = "feeds"
	FeedSetFolder    FeedSetKind = "folder"
	FeedSetSocial    FeedSetKind = "social"
	FeedSetAllFeeds  FeedSetKind = "all"
	FeedSetAllSocial FeedSetKind = "allsocial"
	FeedSetSaved     FeedSetKind = "saved"
	FeedSetRead      FeedSetKind = "read"
	FeedSetGlobal    FeedSetKind = "global"
)

// FeedSet identifies a unit over which stories are synced: a single feed, a
// folder, a social subscription, saved stories and so on.
//
// FeedSet is a comparable value type. Two FeedSets built from the same inputs
// are equal with ==, which makes them usable as map keys. The zero value is
// not a valid FeedSet.
type FeedSet struct {
	kind FeedSetKind
	// id is the feed id, social user id, folder name or saved-story tag.
	id string
	// feeds is the canonical, sorted, comma-joined feed id list.
	feeds  string
	search string
}

// SingleFeed selects the stories of one feed.
func SingleFeed(feedID string) FeedSet {
	return FeedSet{kind: FeedSetSingle, id: feedID, feeds: feedID}
}

// MultipleFeeds selects the river of several feeds. Order and duplicates in
// feedIDs do not affect equality.
func MultipleFeeds(feedIDs ...string) FeedSet {
	return FeedSet{kind: FeedSetMultiple, feeds: canonicalIDs(feedIDs)}
}

// FolderScope selects the river of a folder's feeds. The scope is keyed on
// the folder name alone; the feeds are resolved when stories are fetched.
func FolderScope(name string) FeedSet {
	return FeedSet{kind: FeedSetFolder, id: name}
}

// SocialScope selects the shared stories of a followed user.
func SocialScope(userID string) FeedSet {
	return FeedSet{kind: FeedSetSocial, id: userID}
}

// AllFeeds selects the river of every subscribed feed.
func AllFeeds() FeedSet {
	return FeedSet{kind: FeedSetAllFeeds}
}

// AllSocial selects the river of every followed user.
func AllSocial() FeedSet {
	return FeedSet{kind: FeedSetAllSocial}
}

// SavedStories selects saved stories, optionally restricted to one tag.
func SavedStories(tag string) FeedSet {
	return FeedSet{kind: FeedSetSaved, id: tag}
}

// ReadStories selects the recently read stories.
func ReadStories() FeedSet {
	return FeedSet{kind: FeedSetRead}
}

// GlobalShared selects the global shared stories river.
func GlobalShared() FeedSet {
	return FeedSet{kind: FeedSetGlobal}
}

// WithSearch returns a copy of the feed set restricted to a search query.
func (fs FeedSet) WithSearch(query string) FeedSet {
	fs.search = strings.TrimSpace(query)
	return fs
}

// WithFeeds returns a copy of a folder scope carrying the resolved feed ids
// of the folder. The copy is a request value: it no longer equals the
// name-only scope, so keep using the original as a map key.
func (fs FeedSet) WithFeeds(feedIDs ...string) FeedSet {
	if fs.kind == FeedSetFolder {
		fs.feeds = canonicalIDs(feedIDs)
	}
	return fs
}

// NeedsFeeds reports whether fs is a folder scope whose feeds have not been
// resolved yet.
func (fs FeedSet) NeedsFeeds() bool {
	return fs.kind == FeedSetFolder && fs.feeds == ""
}

// Kind returns the kind of the feed set.
func (fs FeedSet) Kind() FeedSetKind { return fs.kind }

// ID returns the feed id, user id, folder name or tag, depending on Kind.
func (fs FeedSet) ID() string { return fs.id }

// SearchQuery returns the search restriction, if any.
func (fs FeedSet) SearchQuery() string { return fs.search }

// FeedIDs returns the feed ids the set covers, if it is defined by them.
func (fs FeedSet) FeedIDs() []string {
	if fs.feeds == "" {
		return nil
	}
	return strings.Split(fs.feeds, ",")
}

// IsZero reports whether fs is the zero value.
func (fs FeedSet) IsZero() bool { return fs.kind == "" }

// Validate checks that the feed set has the fields its kind requires.
func (fs FeedSet) Validate() error {
	switch fs.kind {
	case FeedSetSingle, FeedSetSocial:
		if fs.id == "" {
			return fmt.Errorf("%w: %s feed set requires an id", ErrInvalidInput, fs.kind)
		}
	case FeedSetMultiple:
		if fs.feeds == "" {
			return fmt.Errorf("%w: feed set requires at least one feed", ErrInvalidInput)
		}
	case FeedSetFolder:
		if fs.id == "" {
			return fmt.Errorf("%w: folder feed set requires a name", ErrInvalidInput)
		}
	case FeedSetAllFeeds, FeedSetAllSocial, FeedSetSaved, FeedSetRead, FeedSetGlobal:
	default:
		return fmt.Errorf("%w: unknown feed set kind %q", ErrInvalidInput, fs.kind)
	}
	return nil
}

// Key returns a stable string form, suitable for preference keys and logs.
func (fs FeedSet) Key() string {
	var b strings.Builder
	b.WriteString(string(fs.kind))
	if fs.id != "" {
		b.WriteString(":")
		b.WriteString(fs.id)
	}
	if fs.feeds != "" && fs.feeds != fs.id {
		b.WriteString("[")
		b.WriteString(fs.feeds)
		b.WriteString("]")
	}
	if fs.search != "" {
		b.WriteString("?q=")
		b.WriteString(fs.search)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (fs FeedSet) String() string { return fs.Key() }

// ParseFeedSet parses the short forms accepted on the command line:
//
//	feed:<id>  feeds:<id>,<id>  folder:<name>  social:<user-id>
//	all  allsocial  saved[:<tag>]  read  global
func ParseFeedSet(s string) (FeedSet, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	var fs FeedSet
	switch FeedSetKind(kind) {
	case FeedSetSingle:
		fs = SingleFeed(arg)
	case FeedSetMultiple:
		fs = MultipleFeeds(strings.Split(arg, ",")...)
	case FeedSetFolder:
		fs = FolderScope(arg)
	case FeedSetSocial:
		fs = SocialScope(arg)
	case FeedSetAllFeeds:
		fs = AllFeeds()
	case FeedSetAllSocial:
		fs = AllSocial()
	case FeedSetSaved:
		fs = SavedStories(arg)
	case FeedSetRead:
		fs = ReadStories()
	case FeedSetGlobal:
		fs = GlobalShared()
	default:
		return FeedSet{}, fmt.Errorf("%w: unknown feed set %q", ErrInvalidInput, s)
	}
	if err := fs.Validate(); err != nil {
		return FeedSet{}, err
	}
	return fs, nil
}

func canonicalIDs(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
