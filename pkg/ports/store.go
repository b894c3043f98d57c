package ports

import (
	"context"

	"github.com/seranno/wayfarer/pkg/domain"
)

// HistoryStore defines the interface for persisting reader history
// collections. A collection is saved and loaded as a unit; partial writes
// would break the merge invariants.
type HistoryStore interface {
	// Load retrieves the full collection for a reader.
	// An unknown reader yields an empty collection, not an error.
	Load(ctx context.Context, readerID string) ([]domain.History, error)

	// Save replaces the reader's collection.
	Save(ctx context.Context, readerID string, histories []domain.History) error

	// Delete removes the reader's collection. Deleting an unknown reader
	// is not an error.
	Delete(ctx context.Context, readerID string) error

	// Readers lists every reader with a stored collection.
	Readers(ctx context.Context) ([]string, error)
}

// ActivityLog records every visit a reader makes, including revisits that
// never change the history collection.
type ActivityLog interface {
	// Append adds one record to the reader's feed.
	Append(ctx context.Context, readerID string, rec domain.ActivityRecord) error

	// Recent returns the newest records first, at most limit entries.
	// A non-positive limit returns the whole feed.
	Recent(ctx context.Context, readerID string, limit int) ([]domain.ActivityRecord, error)
}

// FavoriteStore persists the pages a reader starred.
type FavoriteStore interface {
	// Add stars a page. Adding twice is not an error.
	Add(ctx context.Context, readerID string, fav domain.Favorite) error

	// Remove unstars a page. Removing an absent favorite is not an error.
	Remove(ctx context.Context, readerID string, fav domain.Favorite) error

	// IsFavorited reports whether the reader starred the page.
	IsFavorited(ctx context.Context, readerID string, fav domain.Favorite) (bool, error)

	// List returns all favorites of a reader.
	List(ctx context.Context, readerID string) ([]domain.Favorite, error)
}
