package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Store implements ports.HistoryStore using Redis.
// Each reader's collection is one JSON value; a ZSET indexes readers by
// expiry so listing can prune lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for reader collections.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for reader collections.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "wayfarer:reader:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(readerID string) string {
	return s.prefix + readerID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the reader's collection to Redis.
func (s *Store) Save(ctx context.Context, readerID string, histories []domain.History) error {
	if readerID == "" {
		return domain.ErrReaderRequired
	}
	if histories == nil {
		histories = []domain.History{}
	}

	data, err := json.Marshal(histories)
	if err != nil {
		return fmt.Errorf("failed to marshal histories: %w", err)
	}

	pipe := s.client.Pipeline()

	// 1. Save JSON with TTL (0 keeps the key forever)
	pipe.Set(ctx, s.key(readerID), data, s.ttl)

	// 2. Add to Index (ZSET)
	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01 (Far enough for now)
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: readerID,
	})

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to save to redis: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Load retrieves the reader's collection from Redis.
// A missing key yields an empty collection.
func (s *Store) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	if readerID == "" {
		return nil, domain.ErrReaderRequired
	}

	val, err := s.client.Get(ctx, s.key(readerID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get from redis: %v", domain.ErrStoreUnavailable, err)
	}

	var histories []domain.History
	if err := json.Unmarshal([]byte(val), &histories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal histories: %w", err)
	}

	return histories, nil
}

// Delete removes the reader's collection.
func (s *Store) Delete(ctx context.Context, readerID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(readerID))
	pipe.ZRem(ctx, s.indexKey(), readerID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to delete from redis: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Readers returns readers with stored collections.
// Uses the ZSET index with lazy cleanup of expired entries.
func (s *Store) Readers(ctx context.Context) ([]string, error) {
	// Lazy Cleanup: Remove expired entries from Index
	now := float64(time.Now().Unix())

	// If TTL > 0, we can rely on cleanup.
	// If everything is infinite, this removes nothing.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to prune expired readers: %v", domain.ErrStoreUnavailable, err)
	}

	readers, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list readers: %v", domain.ErrStoreUnavailable, err)
	}

	return readers, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
