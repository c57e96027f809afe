package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderMapping_Validate(t *testing.T) {
	m := &FolderMapping{
		Authenticated: true,
		Folders: map[string][]string{
			" ":      {"1"},
			"Tech":   {"2", "3"},
			" News ": {"4"},
			"":       {"9"},
			"Empty":  {},
		},
		Feeds: map[string]Feed{
			"1": {ID: "1", Title: "One", Active: true},
			"2": {Title: "Two", Active: true},
			"3": {ID: "3", Title: "Three", Active: false},
			"4": {ID: "4", Title: "Four", Active: true},
			"5": {ID: "5", Title: "Orphan", Active: true},
		},
		SocialFeeds: []SocialFeed{{UserID: "42", Username: "bob"}},
	}

	set, orphans := m.Validate()

	assert.Equal(t, []string{"5"}, orphans)

	var folders []string
	for _, f := range set.Folders {
		folders = append(folders, f.Name)
	}
	sort.Strings(folders)
	assert.Equal(t, []string{"Empty", "News", "Tech"}, folders)

	assert.Contains(t, set.Memberships, FolderFeed{FolderName: "", FeedID: "1"})
	assert.Contains(t, set.Memberships, FolderFeed{FolderName: "News", FeedID: "4"})
	assert.NotContains(t, set.Memberships, FolderFeed{FolderName: "", FeedID: "9"})

	ids := make([]string, 0, len(set.Feeds))
	for _, f := range set.Feeds {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"1", "2", "4"}, ids, "inactive feed dropped, missing id filled in")

	assert.Equal(t, m.SocialFeeds, set.SocialFeeds)
}

func TestFolderMapping_ValidateEmpty(t *testing.T) {
	m := &FolderMapping{Authenticated: true}

	set, orphans := m.Validate()

	assert.Empty(t, orphans)
	assert.Empty(t, set.Feeds)
	assert.Empty(t, set.Folders)
}
