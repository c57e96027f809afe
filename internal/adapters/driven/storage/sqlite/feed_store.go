package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// FeedStore implements driven.FeedStore.
type FeedStore struct {
	store *Store
}

var _ driven.FeedStore = (*FeedStore)(nil)

// ReplaceFeedsFolders replaces every feed, folder, membership and social
// feed in one transaction. On error the previous snapshot is kept.
func (s *FeedStore) ReplaceFeedsFolders(ctx context.Context, set domain.FeedFolderSet) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"folder_feeds", "folders", "feeds", "social_feeds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, feed := range set.Feeds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO feeds (id, title, address, link, favicon_url, active,
				positive_count, neutral_count, negative_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, feed.ID, feed.Title, feed.Address, feed.Link, feed.FaviconURL, boolToInt(feed.Active),
			feed.PositiveCount, feed.NeutralCount, feed.NegativeCount); err != nil {
			return fmt.Errorf("inserting feed %s: %w", feed.ID, err)
		}
	}

	for _, folder := range set.Folders {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO folders (name) VALUES (?)", folder.Name); err != nil {
			return fmt.Errorf("inserting folder %q: %w", folder.Name, err)
		}
	}

	for _, m := range set.Memberships {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO folder_feeds (folder_name, feed_id) VALUES (?, ?)",
			m.FolderName, m.FeedID); err != nil {
			return fmt.Errorf("inserting membership %q/%s: %w", m.FolderName, m.FeedID, err)
		}
	}

	for _, sf := range set.SocialFeeds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO social_feeds (user_id, username, title, photo_url,
				positive_count, neutral_count, negative_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				username = excluded.username,
				title = excluded.title,
				photo_url = excluded.photo_url,
				positive_count = excluded.positive_count,
				neutral_count = excluded.neutral_count,
				negative_count = excluded.negative_count
		`, sf.UserID, sf.Username, sf.Title, sf.PhotoURL,
			sf.PositiveCount, sf.NeutralCount, sf.NegativeCount); err != nil {
			return fmt.Errorf("inserting social feed %s: %w", sf.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing feeds: %w", err)
	}
	return nil
}

// ListFeeds returns every stored feed ordered by id.
func (s *FeedStore) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, address, link, favicon_url, active,
			positive_count, neutral_count, negative_count
		FROM feeds ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.Feed //nolint:prealloc // size unknown from query
	for rows.Next() {
		var feed domain.Feed
		var title, address, link, favicon sql.NullString
		var active int
		if err := rows.Scan(&feed.ID, &title, &address, &link, &favicon, &active,
			&feed.PositiveCount, &feed.NeutralCount, &feed.NegativeCount); err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feed.Title = title.String
		feed.Address = address.String
		feed.Link = link.String
		feed.FaviconURL = favicon.String
		feed.Active = active == 1
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feeds: %w", err)
	}
	return feeds, nil
}

// FolderFeeds returns the feed ids of a folder. The root folder is "".
func (s *FeedStore) FolderFeeds(ctx context.Context, folder string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT feed_id FROM folder_feeds WHERE folder_name = ? ORDER BY feed_id", folder)
	if err != nil {
		return nil, fmt.Errorf("querying folder feeds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning folder feed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folder feeds: %w", err)
	}
	return ids, nil
}

// UpdateStarredCount records the number of saved stories.
func (s *FeedStore) UpdateStarredCount(ctx context.Context, count int) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO starred_count (id, count) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET count = excluded.count
	`, count)
	if err != nil {
		return fmt.Errorf("updating starred count: %w", err)
	}
	return nil
}

// StarredCount returns the recorded number of saved stories, 0 if never set.
func (s *FeedStore) StarredCount(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT count FROM starred_count WHERE id = 1").Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading starred count: %w", err)
	}
	return count, nil
}
