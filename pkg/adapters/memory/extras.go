package memory

import (
	"context"
	"sync"

	"github.com/seranno/wayfarer/pkg/domain"
)

// ActivityLog implements ports.ActivityLog in memory.
// Safe for concurrent use.
type ActivityLog struct {
	mu   sync.RWMutex
	recs map[string][]domain.ActivityRecord
}

// NewActivityLog creates a new in-memory activity log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{
		recs: make(map[string][]domain.ActivityRecord),
	}
}

// Append adds one record to the reader's feed.
func (l *ActivityLog) Append(ctx context.Context, readerID string, rec domain.ActivityRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs[readerID] = append(l.recs[readerID], rec)
	return nil
}

// Recent returns the newest records first, at most limit entries.
func (l *ActivityLog) Recent(ctx context.Context, readerID string, limit int) ([]domain.ActivityRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	feed := l.recs[readerID]
	if limit <= 0 || limit > len(feed) {
		limit = len(feed)
	}

	out := make([]domain.ActivityRecord, 0, limit)
	for i := len(feed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, feed[i])
	}
	return out, nil
}

// FavoriteStore implements ports.FavoriteStore in memory.
// Safe for concurrent use.
type FavoriteStore struct {
	mu    sync.RWMutex
	favs  map[string]map[domain.Favorite]struct{}
	order map[string][]domain.Favorite
}

// NewFavoriteStore creates a new in-memory favorite store.
func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{
		favs:  make(map[string]map[domain.Favorite]struct{}),
		order: make(map[string][]domain.Favorite),
	}
}

// Add stars a page. Adding twice is a no-op.
func (f *FavoriteStore) Add(ctx context.Context, readerID string, fav domain.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.favs[readerID]
	if !ok {
		set = make(map[domain.Favorite]struct{})
		f.favs[readerID] = set
	}
	if _, exists := set[fav]; exists {
		return nil
	}
	set[fav] = struct{}{}
	f.order[readerID] = append(f.order[readerID], fav)
	return nil
}

// Remove unstars a page. Removing an absent favorite is a no-op.
func (f *FavoriteStore) Remove(ctx context.Context, readerID string, fav domain.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.favs[readerID]
	if !ok {
		return nil
	}
	if _, exists := set[fav]; !exists {
		return nil
	}
	delete(set, fav)

	kept := f.order[readerID][:0]
	for _, v := range f.order[readerID] {
		if v != fav {
			kept = append(kept, v)
		}
	}
	f.order[readerID] = kept
	return nil
}

// IsFavorited reports whether the reader starred the page.
func (f *FavoriteStore) IsFavorited(ctx context.Context, readerID string, fav domain.Favorite) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.favs[readerID][fav]
	return ok, nil
}

// List returns the reader's favorites in the order they were added.
func (f *FavoriteStore) List(ctx context.Context, readerID string) ([]domain.Favorite, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]domain.Favorite(nil), f.order[readerID]...), nil
}
