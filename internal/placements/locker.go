package placements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"adslot/internal/shared/constants"
)

// Locker serializes mutations of one slot. Lock blocks until the slot is held
// or ctx is done and returns the function that releases it. The release
// function may be called more than once.
type Locker interface {
	Lock(ctx context.Context, slotID string) (unlock func(), err error)
}

// KeyedLocker is an in-process per-slot mutex. Entries are reference counted
// and dropped once no goroutine holds or waits on them.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]*slotLock)}
}

func (k *KeyedLocker) Lock(ctx context.Context, slotID string) (func(), error) {
	k.mu.Lock()
	l, ok := k.slots[slotID]
	if !ok {
		l = &slotLock{ch: make(chan struct{}, 1)}
		k.slots[slotID] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(slotID, l)
		return nil, fmt.Errorf("lock slot %s: %w", slotID, ErrConcurrentModification)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.release(slotID, l)
		})
	}, nil
}

func (k *KeyedLocker) release(slotID string, l *slotLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.slots, slotID)
	}
}

const luaReleaseLock = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker holds a per-slot lock in Redis so several API instances can
// share one store. The key carries a random token and a TTL; release only
// deletes the key while it still holds our token.
type RedisLocker struct {
	redis   *redis.Client
	ttl     time.Duration
	wait    time.Duration
	retry   time.Duration
	release *redis.Script
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &RedisLocker{
		redis:   client,
		ttl:     ttl,
		wait:    wait,
		retry:   25 * time.Millisecond,
		release: redis.NewScript(luaReleaseLock),
	}
}

func GetLockKey(slotID string) string {
	return constants.CACHE_KEY_SLOT_LOCK + slotID
}

func (r *RedisLocker) Lock(ctx context.Context, slotID string) (func(), error) {
	key := GetLockKey(slotID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.redis.SetNX(waitCtx, key, token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, storageError("acquire slot lock", err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("could not acquire lock for slot %s: %w", slotID, ErrConcurrentModification)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = r.release.Run(releaseCtx, r.redis, []string{key}, token).Err()
		})
	}, nil
}
