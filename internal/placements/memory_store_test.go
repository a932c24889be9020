package placements

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Version)
	assert.True(t, rec.IsEmpty())

	p := placementAt("a", "0.30", testStart)
	require.NoError(t, p.activate(testStart))
	rec.SetActive(p)
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	stale, err := store.Load(ctx, "header")
	require.NoError(t, err)
	fresh, err := store.Load(ctx, "header")
	require.NoError(t, err)

	fresh.PushQueued(placementAt("b", "0.20", testStart))
	require.NoError(t, store.Save(ctx, fresh))

	stale.ClearActive()
	err = store.Save(ctx, stale)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.NotNil(t, got.ActivePlacement)
	assert.Len(t, got.Queue, 1)
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := NewSlotRecord("header")
	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx, "header")
	require.NoError(t, err)
	loaded.Queue[0].PlacementID = "mutated"

	again, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Queue[0].PlacementID)
}

func TestMemoryStoreDeletesEmptyRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"square", "footer", "header"} {
		rec := NewSlotRecord(id)
		rec.PushQueued(placementAt(id+"-1", "0.30", testStart))
		require.NoError(t, store.Save(ctx, rec))
	}
	ids, err := store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"footer", "header", "square"}, ids)

	rec, err := store.Load(ctx, "footer")
	require.NoError(t, err)
	rec.PopQueueHead()
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	ids, err = store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"header", "square"}, ids)
}

func TestMemoryStoreVersionSurvivesDeletion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := NewSlotRecord("header")
	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, store.Save(ctx, rec))

	// A writer that read the first incarnation of the record.
	stale, err := store.Load(ctx, "header")
	require.NoError(t, err)

	emptied, err := store.Load(ctx, "header")
	require.NoError(t, err)
	emptied.PopQueueHead()
	require.NoError(t, store.Save(ctx, emptied))

	reloaded, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.True(t, reloaded.IsEmpty())
	assert.Equal(t, int64(2), reloaded.Version)

	stale.PushQueued(placementAt("b", "0.20", testStart))
	assert.ErrorIs(t, store.Save(ctx, stale), ErrConcurrentModification)

	reloaded.PushQueued(placementAt("c", "0.20", testStart))
	require.NoError(t, store.Save(ctx, reloaded))
	assert.Equal(t, int64(3), reloaded.Version)
}

func TestMemoryStoreSkipsEmptyFirstWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := NewSlotRecord("header")
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, int64(0), rec.Version)

	ids, err := store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Load(ctx, "header")
	assert.ErrorIs(t, err, context.Canceled)
}
