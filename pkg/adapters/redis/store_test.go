package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/seranno/wayfarer/pkg/adapters/redis"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)

	store := redis.NewFromClient(client)
	ports.RunHistoryStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newTestClient(t)

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	readerID := "reader-ttl"
	histories := []domain.History{
		{ID: "01A", Story: "cave", Pages: []domain.PageID{"start"}},
	}

	// 1. Save
	assert.NoError(t, store.Save(ctx, readerID, histories))

	// 2. Verify Readers (immediately)
	readers, err := store.Readers(ctx)
	assert.NoError(t, err)
	assert.Contains(t, readers, readerID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (expired collections read as empty)
	loaded, err := store.Load(ctx, readerID)
	assert.NoError(t, err)
	assert.Empty(t, loaded)

	// 5. Verify Readers (lazily cleaned up)
	// The lazy prune compares index scores against time.Now(), so the test
	// must actually outlive the TTL.
	time.Sleep(1200 * time.Millisecond)

	readers, err = store.Readers(ctx)
	assert.NoError(t, err)
	assert.Empty(t, readers)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newTestClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, "my-reader", []domain.History{
		{ID: "01A", Story: "cave", Pages: []domain.PageID{"start"}},
	})
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-reader"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	readers, err := store.Readers(ctx)
	assert.NoError(t, err)
	assert.Contains(t, readers, "my-reader")
}
