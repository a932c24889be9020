package placements

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adslot/internal/shared/constants"
)

func TestKeyedLockerSerializesOneSlot(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "header")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locker.slots)
}

func TestKeyedLockerSlotsAreIndependent(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	unlockHeader, err := locker.Lock(ctx, "header")
	require.NoError(t, err)
	defer unlockHeader()

	unlockFooter, err := locker.Lock(ctx, "footer")
	require.NoError(t, err)
	unlockFooter()
}

func TestKeyedLockerGivesUpWithContext(t *testing.T) {
	locker := NewKeyedLocker()

	unlock, err := locker.Lock(context.Background(), "header")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "header")
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// Unlock is idempotent.
	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), "header")
	require.NoError(t, err)
	again()
}

func TestGetLockKey(t *testing.T) {
	assert.Equal(t, constants.CACHE_KEY_SLOT_LOCK+"header", GetLockKey("header"))
}
