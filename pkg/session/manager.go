package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/seranno/wayfarer/internal/logging"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc // Function to release distributed lock (if any)
}

// Manager serializes access to each reader's history collection.
// All writes go through a read-modify-write cycle under a per-reader lock,
// so concurrent visits from the same reader settle one at a time.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.HistoryStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	logger *slog.Logger            // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new reader session Manager with the given store.
func NewManager(store ports.HistoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(readerID) after unlocking.
func (m *Manager) acquire(readerID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[readerID]
	if !exists {
		entry = &lockEntry{}
		m.locks[readerID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(readerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[readerID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, readerID)
	}
}

// Load retrieves the reader's collection from the store.
func (m *Manager) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	var histories []domain.History
	err := m.WithLock(ctx, readerID, func(ctx context.Context) error {
		var err error
		histories, err = m.store.Load(ctx, readerID)
		return err
	})
	return histories, err
}

// Save replaces the reader's collection.
func (m *Manager) Save(ctx context.Context, readerID string, histories []domain.History) error {
	return m.WithLock(ctx, readerID, func(ctx context.Context) error {
		return m.store.Save(ctx, readerID, histories)
	})
}

// Update runs a read-modify-write cycle under the reader's lock: load the
// collection, transform it, and persist the result when fn reports a change.
func (m *Manager) Update(ctx context.Context, readerID string, fn func(context.Context, []domain.History) ([]domain.History, bool, error)) error {
	return m.WithLock(ctx, readerID, func(ctx context.Context) error {
		histories, err := m.store.Load(ctx, readerID)
		if err != nil {
			return fmt.Errorf("failed to load histories: %w", err)
		}

		next, changed, err := fn(ctx, histories)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := m.store.Save(ctx, readerID, next); err != nil {
			return fmt.Errorf("failed to save histories: %w", err)
		}
		return nil
	})
}

// Delete removes the reader's collection from the store.
func (m *Manager) Delete(ctx context.Context, readerID string) error {
	return m.WithLock(ctx, readerID, func(ctx context.Context) error {
		return m.store.Delete(ctx, readerID)
	})
}

// Readers delegates to the store.
func (m *Manager) Readers(ctx context.Context) ([]string, error) {
	return m.store.Readers(ctx)
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.store
}

// WithLock executes a function while holding the lock for the reader.
func (m *Manager) WithLock(ctx context.Context, readerID string, fn func(context.Context) error) error {
	entry := m.acquire(readerID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(readerID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, readerID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"reader_id", readerID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
