package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// StoryStore implements driven.StoryStore. It also caches the original
// text fetched by the text companion.
type StoryStore struct {
	store *Store
}

var _ driven.StoryStore = (*StoryStore)(nil)

// InsertStories upserts a page of stories in one transaction. A story that
// was already active or shared stays so.
func (s *StoryStore) InsertStories(
	ctx context.Context,
	page *domain.StoriesPage,
	mode domain.ActivationMode,
	cutoff time.Time,
) error {
	if !page.Valid() {
		return domain.ErrMalformedResponse
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stories (hash, feed_id, title, permalink, authors, content, tags, user_tags,
			timestamp, read, starred, shared, share_comment, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			feed_id = excluded.feed_id,
			title = excluded.title,
			permalink = excluded.permalink,
			authors = excluded.authors,
			content = excluded.content,
			tags = excluded.tags,
			user_tags = excluded.user_tags,
			timestamp = excluded.timestamp,
			read = excluded.read,
			starred = excluded.starred,
			shared = MAX(stories.shared, excluded.shared),
			share_comment = COALESCE(excluded.share_comment, stories.share_comment),
			active = MAX(stories.active, excluded.active)
	`)
	if err != nil {
		return fmt.Errorf("preparing story insert: %w", err)
	}
	defer stmt.Close()

	for i := range page.Stories {
		story := &page.Stories[i]
		tags, err := marshalStrings(story.Tags)
		if err != nil {
			return err
		}
		userTags, err := marshalStrings(story.UserTags)
		if err != nil {
			return err
		}
		active := mode.Activates(story.Timestamp, cutoff)
		if _, err := stmt.ExecContext(ctx,
			story.Hash, story.FeedID, story.Title, story.Permalink, story.Authors, story.Content,
			tags, userTags, unixNanos(story.Timestamp),
			boolToInt(story.Read), boolToInt(story.Starred), boolToInt(story.Shared),
			nullString(story.ShareComment), boolToInt(active),
		); err != nil {
			return fmt.Errorf("inserting story %s: %w", story.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stories: %w", err)
	}
	return nil
}

// SetStoriesRead sets the read state of stories. Unknown hashes are ignored.
func (s *StoryStore) SetStoriesRead(ctx context.Context, hashes []string, read bool) error {
	if len(hashes) == 0 {
		return nil
	}
	args := make([]any, 0, len(hashes)+1)
	args = append(args, boolToInt(read))
	for _, h := range hashes {
		args = append(args, h)
	}
	query := "UPDATE stories SET read = ? WHERE hash IN (" + placeholders(len(hashes)) + ")"
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("setting read state: %w", err)
	}
	return nil
}

// MarkFeedsRead marks every story of the feeds read within the window.
func (s *StoryStore) MarkFeedsRead(ctx context.Context, feedIDs []string, olderThan, newerThan time.Time) error {
	if len(feedIDs) == 0 {
		return nil
	}
	older, newer := nullableNanos(olderThan), nullableNanos(newerThan)
	args := make([]any, 0, len(feedIDs)+4)
	for _, id := range feedIDs {
		args = append(args, id)
	}
	args = append(args, older, older, newer, newer)
	query := `UPDATE stories SET read = 1
		WHERE feed_id IN (` + placeholders(len(feedIDs)) + `)
		AND (? IS NULL OR timestamp <= ?)
		AND (? IS NULL OR timestamp >= ?)`
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking feeds read: %w", err)
	}
	return nil
}

// SetStarred sets the saved state and user tags of a story.
func (s *StoryStore) SetStarred(ctx context.Context, hash string, starred bool, tags []string) error {
	userTags, err := marshalStrings(tags)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx,
		"UPDATE stories SET starred = ?, user_tags = ? WHERE hash = ?",
		boolToInt(starred), userTags, hash)
	if err != nil {
		return fmt.Errorf("setting starred state: %w", err)
	}
	return nil
}

// MarkShared records that the user shared a story.
func (s *StoryStore) MarkShared(ctx context.Context, hash, comment string) error {
	_, err := s.store.db.ExecContext(ctx,
		"UPDATE stories SET shared = 1, share_comment = ? WHERE hash = ?",
		nullString(comment), hash)
	if err != nil {
		return fmt.Errorf("marking story shared: %w", err)
	}
	return nil
}

// GetStory retrieves a story by hash.
func (s *StoryStore) GetStory(ctx context.Context, hash string) (*domain.Story, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT hash, feed_id, title, permalink, authors, content, tags, user_tags,
			timestamp, read, starred, shared, share_comment, active
		FROM stories WHERE hash = ?
	`, hash)

	var story domain.Story
	var title, permalink, authors, content, tags, userTags, comment sql.NullString
	var ts int64
	var read, starred, shared, active int
	err := row.Scan(&story.Hash, &story.FeedID, &title, &permalink, &authors, &content,
		&tags, &userTags, &ts, &read, &starred, &shared, &comment, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning story: %w", err)
	}

	story.Title = title.String
	story.Permalink = permalink.String
	story.Authors = authors.String
	story.Content = content.String
	story.Tags = unmarshalStrings(tags)
	story.UserTags = unmarshalStrings(userTags)
	story.Timestamp = fromUnixNanos(ts)
	story.Read = read == 1
	story.Starred = starred == 1
	story.Shared = shared == 1
	story.ShareComment = comment.String
	story.Active = active == 1
	return &story, nil
}

// CountStories returns the number of stored stories.
func (s *StoryStore) CountStories(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting stories: %w", err)
	}
	return n, nil
}

// CleanupStories drops read stories unless keepOld is set. Saved stories
// are always kept.
func (s *StoryStore) CleanupStories(ctx context.Context, keepOld bool) error {
	if keepOld {
		return nil
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM stories WHERE read = 1 AND starred = 0"); err != nil {
		return fmt.Errorf("cleaning up stories: %w", err)
	}
	return nil
}

// CleanupStoryText drops cached text of stories no longer stored.
func (s *StoryStore) CleanupStoryText(ctx context.Context) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM story_texts WHERE hash NOT IN (SELECT hash FROM stories)")
	if err != nil {
		return fmt.Errorf("cleaning up story text: %w", err)
	}
	return nil
}

// PutStoryText caches the original text of a story.
func (s *StoryStore) PutStoryText(ctx context.Context, hash, text string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO story_texts (hash, text) VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET text = excluded.text
	`, hash, text)
	if err != nil {
		return fmt.Errorf("saving story text: %w", err)
	}
	return nil
}

// StoryText returns the cached original text of a story.
func (s *StoryStore) StoryText(ctx context.Context, hash string) (string, error) {
	var text string
	err := s.store.db.QueryRowContext(ctx, "SELECT text FROM story_texts WHERE hash = ?", hash).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading story text: %w", err)
	}
	return text, nil
}

// ==================== Helper Functions ====================

// placeholders returns n comma-separated bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// marshalStrings encodes a string list as JSON, or nil when empty.
func marshalStrings(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings decodes a JSON string list. Invalid data yields nil.
func unmarshalStrings(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil
	}
	return v
}
