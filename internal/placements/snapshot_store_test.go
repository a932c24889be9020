package placements

import (
	"context"
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adslot/internal/content"
)

type snapshotFixture struct {
	blobs *content.MemoryStore
	head  *MemoryHead
	clock *clock.Mock
}

func newSnapshotFixture() *snapshotFixture {
	clk := clock.NewMock()
	clk.Set(testStart)
	return &snapshotFixture{
		blobs: content.NewMemoryStore("http://localhost/content"),
		head:  NewMemoryHead(""),
		clock: clk,
	}
}

func (f *snapshotFixture) store() *SnapshotStore {
	return NewSnapshotStore(f.blobs, f.head, 10*time.Second, f.clock)
}

func TestSnapshotStoreRoundTripsThroughHead(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	writer := f.store()

	rec, err := writer.Load(ctx, "header")
	require.NoError(t, err)
	active := placementAt("a", "0.30", testStart)
	require.NoError(t, active.activate(testStart))
	rec.SetActive(active)
	rec.PushQueued(placementAt("b", "0.20", testStart))
	require.NoError(t, writer.Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	headRef, err := f.head.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, writer.HeadRef(), headRef)

	reader := f.store()
	got, err := reader.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	require.NotNil(t, got.ActivePlacement)
	assert.Equal(t, "a", got.ActivePlacement.PlacementID)
	assert.Equal(t, []string{"b"}, queueIDs(got.Queue))

	ids, err := reader.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"header"}, ids)
}

func TestSnapshotStoreReadsCacheWithinStaleness(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	writer, reader := f.store(), f.store()

	ids, err := reader.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	rec := NewSlotRecord("footer")
	rec.PushQueued(placementAt("f", "0.30", testStart))
	require.NoError(t, writer.Save(ctx, rec))

	ids, err = reader.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	f.clock.Add(10 * time.Second)
	ids, err = reader.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"footer"}, ids)
}

func TestSnapshotStoreRejectsStaleWriter(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	first, second := f.store(), f.store()

	a, err := first.Load(ctx, "header")
	require.NoError(t, err)
	b, err := second.Load(ctx, "header")
	require.NoError(t, err)

	a.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, first.Save(ctx, a))

	b.PushQueued(placementAt("b", "0.40", testStart))
	err = second.Save(ctx, b)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// Writes to other slots are unaffected by the header version.
	other, err := second.Load(ctx, "footer")
	require.NoError(t, err)
	other.PushQueued(placementAt("c", "0.30", testStart))
	require.NoError(t, second.Save(ctx, other))

	got, err := first.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, queueIDs(got.Queue))
}

func TestSnapshotStoreDetectsMovedHead(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	store := f.store()

	rec, err := store.Load(ctx, "header")
	require.NoError(t, err)
	rec.PushQueued(placementAt("a", "0.30", testStart))

	// Head moves to a document this instance has never seen.
	foreign, err := f.blobs.Put(ctx, []byte(`{"activePlacements":{},"slotQueues":{},"lastUpdated":"2025-03-01T12:00:00Z"}`))
	require.NoError(t, err)
	swapped, err := f.head.CompareAndSwap(ctx, "", foreign)
	require.NoError(t, err)
	require.True(t, swapped)

	// The writer refreshes first, so the save lands on top of the foreign head.
	require.NoError(t, store.Save(ctx, rec))
	assert.NotEqual(t, foreign, store.HeadRef())
}

func TestSnapshotStoreEmptyRecordIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	store := f.store()

	rec := NewSlotRecord("header")
	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, store.Save(ctx, rec))

	stale := rec.Clone()

	rec.PopQueueHead()
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	ids, err := store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	reloaded, err := f.store().Load(ctx, "header")
	require.NoError(t, err)
	assert.True(t, reloaded.IsEmpty())
	assert.Equal(t, int64(2), reloaded.Version)

	stale.PushQueued(placementAt("b", "0.20", testStart))
	assert.ErrorIs(t, store.Save(ctx, stale), ErrConcurrentModification)
}

func TestSnapshotStoreLoadForUpdateIgnoresStaleness(t *testing.T) {
	ctx := context.Background()
	f := newSnapshotFixture()
	writer := f.store()
	reader := f.store()

	cached, err := reader.Load(ctx, "header")
	require.NoError(t, err)
	assert.True(t, cached.IsEmpty())

	rec := NewSlotRecord("header")
	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, writer.Save(ctx, rec))

	// Within the staleness window Load still answers from the cache.
	stillCached, err := reader.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stillCached.Version)

	current, err := reader.LoadForUpdate(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
	assert.Equal(t, []string{"a"}, queueIDs(current.Queue))

	current.PushQueued(placementAt("b", "0.20", testStart))
	require.NoError(t, reader.Save(ctx, current))
	assert.Equal(t, int64(2), current.Version)
}

type failingHead struct{}

func (failingHead) Head(context.Context) (string, error) { return "", errBackendDown }

func (failingHead) CompareAndSwap(context.Context, string, string) (bool, error) {
	return false, errBackendDown
}

func TestSnapshotStoreHeadFailureIsStorageError(t *testing.T) {
	store := NewSnapshotStore(content.NewMemoryStore(""), failingHead{}, time.Second, nil)

	_, err := store.Load(context.Background(), "header")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAllocatorOverSnapshotStore(t *testing.T) {
	f := newSnapshotFixture()
	a := newTestAllocator(t, f.store())
	ctx := context.Background()

	_, err := a.SubmitClaim(ctx, newClaim("header", alice, "0.10", 60))
	require.NoError(t, err)
	queued, err := a.SubmitClaim(ctx, bidClaim("header", bob, "0.10", "0.30", 30))
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, queued.ActivationStatus)

	info, err := a.GetQueueInfo(ctx, "header", queued.PlacementID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Position)
	assert.Equal(t, 1, info.TotalInQueue)
}
