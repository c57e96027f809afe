package domain

import (
	"fmt"
	"time"
)

// Story is a single item of a feed.
type Story struct {
	// Hash is the server's stable identifier for the story.
	Hash string

	// FeedID is the feed the story belongs to.
	FeedID string

	Title     string
	Permalink string
	Authors   string
	Content   string
	Tags      []string
	UserTags  []string

	// Timestamp is the story's publication time.
	Timestamp time.Time

	Read    bool
	Starred bool

	// Shared is set once the user shared the story, with ShareComment.
	Shared       bool
	ShareComment string

	// Active reports whether the story may be surfaced to an open view.
	// Set at insert time from the ActivationMode in force.
	Active bool
}

// StoriesPage is one page of a paginated story listing.
//
// A nil Stories slice denotes a malformed response, an empty non-nil slice
// denotes the end of the listing.
type StoriesPage struct {
	Stories []Story

	// Authenticated is false when the server rejected the session.
	Authenticated bool
}

// Valid reports whether the page can be consumed.
func (p *StoriesPage) Valid() bool {
	return p != nil && p.Stories != nil
}

// StoryOrder is the ordering requested from the server.
type StoryOrder string

// Story orders.
const (
	OrderNewest StoryOrder = "newest"
	OrderOldest StoryOrder = "oldest"
)

// ParseStoryOrder parses a story order, defaulting to OrderNewest for "".
func ParseStoryOrder(s string) (StoryOrder, error) {
	switch StoryOrder(s) {
	case "", OrderNewest:
		return OrderNewest, nil
	case OrderOldest:
		return OrderOldest, nil
	default:
		return "", fmt.Errorf("%w: unknown story order %q", ErrInvalidInput, s)
	}
}

// ReadFilter selects which stories are requested from the server.
type ReadFilter string

// Read filters.
const (
	FilterAll    ReadFilter = "all"
	FilterUnread ReadFilter = "unread"
)

// ParseReadFilter parses a read filter, defaulting to FilterAll for "".
func ParseReadFilter(s string) (ReadFilter, error) {
	switch ReadFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUnread:
		return FilterUnread, nil
	default:
		return "", fmt.Errorf("%w: unknown read filter %q", ErrInvalidInput, s)
	}
}
