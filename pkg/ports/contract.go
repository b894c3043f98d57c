package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seranno/wayfarer/pkg/domain"
)

// RunHistoryStoreContract runs a suite of tests to verify that a
// HistoryStore implementation adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	readerID := "contract-test-reader-" + time.Now().Format("20060102150405")

	fixture := func() []domain.History {
		return []domain.History{
			{
				ID:          "01HQ3CONTRACTAAAAAAAAAAAA1",
				Story:       "cave",
				Pages:       []domain.PageID{"start", "tunnel", "lake"},
				LastUpdated: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
			},
			{
				ID:          "01HQ3CONTRACTAAAAAAAAAAAA2",
				Story:       "forest",
				Pages:       []domain.PageID{"gate"},
				LastUpdated: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		want := fixture()
		require.NoError(t, store.Save(ctx, readerID, want), "Save should not return error")

		got, err := store.Load(ctx, readerID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, want[i].Story, got[i].Story)
			assert.Equal(t, want[i].Pages, got[i].Pages)
			// Timestamp fidelity varies by backend serialization; second
			// precision is the contract floor.
			assert.WithinDuration(t, want[i].LastUpdated, got[i].LastUpdated, time.Second)
		}
	})

	t.Run("Load Unknown Reader", func(t *testing.T) {
		got, err := store.Load(ctx, "unknown-"+readerID)
		require.NoError(t, err, "unknown readers are empty, not errors")
		assert.Empty(t, got)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, readerID, fixture()))

		replacement := []domain.History{
			{
				ID:          "01HQ3CONTRACTAAAAAAAAAAAA3",
				Story:       "cave",
				Pages:       []domain.PageID{"start"},
				LastUpdated: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			},
		}
		require.NoError(t, store.Save(ctx, readerID, replacement))

		got, err := store.Load(ctx, readerID)
		require.NoError(t, err)
		require.Len(t, got, 1, "Save must replace the collection, not append")
		assert.Equal(t, replacement[0].ID, got[0].ID)
	})

	t.Run("Save Isolates Caller Slice", func(t *testing.T) {
		local := fixture()
		require.NoError(t, store.Save(ctx, readerID, local))

		local[0].Pages[0] = "mutated"
		local[0].Story = "mutated"

		got, err := store.Load(ctx, readerID)
		require.NoError(t, err)
		assert.Equal(t, domain.StoryID("cave"), got[0].Story, "stored data must not alias the caller's slice")
		assert.Equal(t, domain.PageID("start"), got[0].Pages[0])
	})

	t.Run("Order Preserved", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, readerID, fixture()))

		got, err := store.Load(ctx, readerID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "01HQ3CONTRACTAAAAAAAAAAAA1", got[0].ID, "positions are client references and must survive a round trip")
		assert.Equal(t, "01HQ3CONTRACTAAAAAAAAAAAA2", got[1].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, readerID, fixture()))
		require.NoError(t, store.Delete(ctx, readerID), "Delete should not return error")

		got, err := store.Load(ctx, readerID)
		require.NoError(t, err)
		assert.Empty(t, got, "Load after Delete should be empty")

		assert.NoError(t, store.Delete(ctx, "unknown-"+readerID), "deleting an unknown reader is not an error")
	})

	t.Run("Readers", func(t *testing.T) {
		id1 := readerID + "-1"
		id2 := readerID + "-2"
		require.NoError(t, store.Save(ctx, id1, fixture()[:1]))
		require.NoError(t, store.Save(ctx, id2, fixture()[:1]))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		readers, err := store.Readers(ctx)
		require.NoError(t, err)
		assert.Contains(t, readers, id1)
		assert.Contains(t, readers, id2)
	})
}
