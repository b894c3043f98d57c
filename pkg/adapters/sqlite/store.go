package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/seranno/wayfarer/pkg/domain"
)

// Store persists reader histories, activity, and favorites in one SQLite
// database. It implements ports.HistoryStore, ports.ActivityLog, and
// ports.FavoriteStore.
//
// A collection is written transactionally: Save deletes the reader's rows
// and reinserts them with their positions, so the positional handle survives
// a round trip exactly as stored.
type Store struct {
	db *sql.DB
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS histories (id TEXT PRIMARY KEY, reader_id TEXT NOT NULL, position INTEGER NOT NULL, story TEXT NOT NULL, pages TEXT NOT NULL, last_updated TIMESTAMP NOT NULL, UNIQUE(reader_id, position))`,
	`CREATE TABLE IF NOT EXISTS activity (id TEXT PRIMARY KEY, reader_id TEXT NOT NULL, story TEXT NOT NULL, page TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS favorites (reader_id TEXT NOT NULL, story TEXT NOT NULL, page TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, PRIMARY KEY(reader_id, story, page))`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_histories_reader ON histories(reader_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_reader ON activity(reader_id, created_at)`,
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under the per-reader lock the session manager already holds.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) createSchema() error {
	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the reader's collection.
func (s *Store) Save(ctx context.Context, readerID string, histories []domain.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM histories WHERE reader_id = ?`, readerID); err != nil {
		return fmt.Errorf("failed to clear histories: %w", err)
	}

	for i, h := range histories {
		pages, err := json.Marshal(h.Pages)
		if err != nil {
			return fmt.Errorf("failed to marshal pages: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO histories (id, reader_id, position, story, pages, last_updated) VALUES (?, ?, ?, ?, ?, ?)`,
			h.ID, readerID, i, string(h.Story), string(pages), h.LastUpdated.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert history %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit histories: %w", err)
	}
	return nil
}

// Load retrieves the reader's collection in stored position order.
// Unknown readers yield an empty collection.
func (s *Store) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, story, pages, last_updated FROM histories WHERE reader_id = ? ORDER BY position`, readerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query histories: %w", err)
	}
	defer rows.Close()

	var out []domain.History
	for rows.Next() {
		var h domain.History
		var story, pages string
		if err := rows.Scan(&h.ID, &story, &pages, &h.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		h.Story = domain.StoryID(story)
		if err := json.Unmarshal([]byte(pages), &h.Pages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pages for %s: %w", h.ID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Delete removes the reader's collection.
func (s *Store) Delete(ctx context.Context, readerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM histories WHERE reader_id = ?`, readerID); err != nil {
		return fmt.Errorf("failed to delete histories: %w", err)
	}
	return nil
}

// Readers lists every reader with a stored collection.
func (s *Store) Readers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT reader_id FROM histories ORDER BY reader_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query readers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reader row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Append adds one record to the reader's activity feed.
func (s *Store) Append(ctx context.Context, readerID string, rec domain.ActivityRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, reader_id, story, page, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, readerID, string(rec.Story), string(rec.Page), ts.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// Recent returns the newest feed entries first, at most limit entries.
func (s *Store) Recent(ctx context.Context, readerID string, limit int) ([]domain.ActivityRecord, error) {
	query := `SELECT id, story, page, created_at FROM activity WHERE reader_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{readerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityRecord
	for rows.Next() {
		var rec domain.ActivityRecord
		var story, page string
		if err := rows.Scan(&rec.ID, &story, &page, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		rec.Story = domain.StoryID(story)
		rec.Page = domain.PageID(page)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Add stars a page. Adding twice is not an error.
func (s *Store) Add(ctx context.Context, readerID string, fav domain.Favorite) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (reader_id, story, page) VALUES (?, ?, ?)`,
		readerID, string(fav.Story), string(fav.Page))
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// Remove unstars a page. Removing an absent favorite is not an error.
func (s *Store) Remove(ctx context.Context, readerID string, fav domain.Favorite) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE reader_id = ? AND story = ? AND page = ?`,
		readerID, string(fav.Story), string(fav.Page))
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// IsFavorited reports whether the reader starred the page.
func (s *Store) IsFavorited(ctx context.Context, readerID string, fav domain.Favorite) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE reader_id = ? AND story = ? AND page = ?)`,
		readerID, string(fav.Story), string(fav.Page)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// List returns the reader's favorites in the order they were added.
func (s *Store) List(ctx context.Context, readerID string) ([]domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT story, page FROM favorites WHERE reader_id = ? ORDER BY created_at, story, page`, readerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var story, page string
		if err := rows.Scan(&story, &page); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		out = append(out, domain.Favorite{Story: domain.StoryID(story), Page: domain.PageID(page)})
	}
	return out, rows.Err()
}
