package placements

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/raulk/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adslot/internal/content"
	"adslot/internal/shared/constants"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStoreVersioning(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	rec, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Version)

	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)
	assert.True(t, mr.Exists(constants.BuildSlotRecordKey("header")))

	stale := rec.Clone()
	stale.Version = 0
	stale.PushQueued(placementAt("b", "0.20", testStart))
	assert.ErrorIs(t, store.Save(ctx, stale), ErrConcurrentModification)

	got, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, queueIDs(got.Queue))

	ids, err := store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"header"}, ids)

	firstIncarnation := got.Clone()
	got.PopQueueHead()
	require.NoError(t, store.Save(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	ids, err = store.SlotIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	tombstone, err := store.Load(ctx, "header")
	require.NoError(t, err)
	assert.True(t, tombstone.IsEmpty())
	assert.Equal(t, int64(2), tombstone.Version)

	firstIncarnation.PushQueued(placementAt("c", "0.20", testStart))
	assert.ErrorIs(t, store.Save(ctx, firstIncarnation), ErrConcurrentModification)
}

func TestRedisStoreSortsStoredQueue(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewRedisStore(client)

	require.NoError(t, mr.Set(constants.BuildSlotRecordKey("header"),
		`{"queue":[{"placementId":"low","basePrice":"0.1","createdAt":"2025-03-01T12:00:00Z"},`+
			`{"placementId":"high","basePrice":"0.9","createdAt":"2025-03-01T12:00:00Z"}],"version":3}`))

	rec, err := store.Load(context.Background(), "header")
	require.NoError(t, err)
	assert.Equal(t, "header", rec.SlotID)
	assert.Equal(t, int64(3), rec.Version)
	assert.Equal(t, []string{"high", "low"}, queueIDs(rec.Queue))
}

func TestRedisStoreUnavailable(t *testing.T) {
	client, mr := newTestRedis(t)
	a := newTestAllocator(t, NewRedisStore(client))
	mr.Close()

	_, err := a.SubmitClaim(context.Background(), newClaim("header", alice, "0.10", 60))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAllocatorOverRedis(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewRedisStore(client)
	a := newTestAllocator(t, store)
	ctx := context.Background()

	_, err := a.SubmitClaim(ctx, newClaim("header", alice, "0.10", 10))
	require.NoError(t, err)
	_, err = a.SubmitClaim(ctx, bidClaim("header", bob, "0.10", "0.50", 10))
	require.NoError(t, err)

	a.clock.Add(10 * time.Minute)
	occupant, err := a.GetOccupant(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, bob, occupant.BidderAddress)
}

func TestRedisLocker(t *testing.T) {
	client, mr := newTestRedis(t)
	locker := NewRedisLocker(client, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "header")
	require.NoError(t, err)
	assert.True(t, mr.Exists(GetLockKey("header")))

	_, err = locker.Lock(ctx, "header")
	assert.ErrorIs(t, err, ErrConcurrentModification)

	other, err := locker.Lock(ctx, "footer")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists(GetLockKey("header")))

	again, err := locker.Lock(ctx, "header")
	require.NoError(t, err)
	again()
}

func TestRedisLockerOnlyReleasesOwnToken(t *testing.T) {
	client, mr := newTestRedis(t)
	locker := NewRedisLocker(client, time.Second, 100*time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "header")
	require.NoError(t, err)

	// The lock expired and another instance took it.
	require.NoError(t, mr.Set(GetLockKey("header"), "someone-else"))
	unlock()

	got, err := mr.Get(GetLockKey("header"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisHead(t *testing.T) {
	client, _ := newTestRedis(t)
	head := NewRedisHead(client)
	ctx := context.Background()

	ref, err := head.Head(ctx)
	require.NoError(t, err)
	assert.Empty(t, ref)

	swapped, err := head.CompareAndSwap(ctx, "", "bafy-one")
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = head.CompareAndSwap(ctx, "", "bafy-two")
	require.NoError(t, err)
	assert.False(t, swapped)

	ref, err = head.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bafy-one", ref)
}

func TestSnapshotStoreOverRedisHead(t *testing.T) {
	client, _ := newTestRedis(t)
	blobs := content.NewMemoryStore("")
	clk := clock.NewMock()
	clk.Set(testStart)

	writer := NewSnapshotStore(blobs, NewRedisHead(client), time.Second, clk)
	reader := NewSnapshotStore(blobs, NewRedisHead(client), time.Second, clk)
	ctx := context.Background()

	rec := NewSlotRecord("header")
	rec.PushQueued(placementAt("a", "0.30", testStart))
	require.NoError(t, writer.Save(ctx, rec))

	got, err := reader.Load(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, queueIDs(got.Queue))
}
