package memory

import (
	"context"
	"sync"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]domain.History
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.History),
	}
}

// Save replaces the reader's collection in memory.
func (s *Store) Save(ctx context.Context, readerID string, histories []domain.History) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := domain.CloneAll(histories)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[readerID] = copied
	return nil
}

// Load retrieves the reader's collection from memory.
// Unknown readers yield an empty collection.
func (s *Store) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy on read so callers can't mutate stored records through the slice.
	return domain.CloneAll(s.data[readerID]), nil
}

// Delete removes the reader's collection.
func (s *Store) Delete(ctx context.Context, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, readerID)
	return nil
}

// Readers returns every reader with a stored collection.
func (s *Store) Readers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readers := make([]string, 0, len(s.data))
	for id := range s.data {
		readers = append(readers, id)
	}
	return readers, nil
}
