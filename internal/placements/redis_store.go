package placements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"adslot/internal/shared/constants"
)

// RedisStore keeps one JSON document per slot plus a set of known slot IDs.
// Writes run in a WATCH transaction on the slot key. An emptied slot keeps
// its key as a tombstone carrying the version and leaves the ID set.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (r *RedisStore) Load(ctx context.Context, slotID string) (*SlotRecord, error) {
	data, err := r.redis.Get(ctx, constants.BuildSlotRecordKey(slotID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSlotRecord(slotID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(slotID, data)
}

func (r *RedisStore) Save(ctx context.Context, record *SlotRecord) error {
	key := constants.BuildSlotRecordKey(record.SlotID)
	var stored int64

	txf := func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, record.SlotID, key)
		if err != nil {
			return err
		}
		if current != record.Version {
			return fmt.Errorf("slot %s at version %d, write based on %d: %w",
				record.SlotID, current, record.Version, ErrConcurrentModification)
		}
		if record.IsEmpty() && current == 0 {
			return nil
		}

		next := record.Clone()
		next.Version = current + 1
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode slot record: %w", err)
		}
		stored = next.Version
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if next.IsEmpty() {
				pipe.SRem(ctx, constants.CACHE_KEY_SLOT_IDS, record.SlotID)
			} else {
				pipe.SAdd(ctx, constants.CACHE_KEY_SLOT_IDS, record.SlotID)
			}
			return nil
		})
		return err
	}

	err := r.redis.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("slot %s changed during write: %w", record.SlotID, ErrConcurrentModification)
	}
	if err != nil {
		return err
	}
	record.Version = stored
	return nil
}

func (r *RedisStore) SlotIDs(ctx context.Context) ([]string, error) {
	ids, err := r.redis.SMembers(ctx, constants.CACHE_KEY_SLOT_IDS).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func storedVersion(ctx context.Context, tx *redis.Tx, slotID, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rec, err := decodeRecord(slotID, data)
	if err != nil {
		return 0, err
	}
	return rec.Version, nil
}

func decodeRecord(slotID string, data []byte) (*SlotRecord, error) {
	rec := NewSlotRecord(slotID)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode slot record %s: %w", slotID, err)
	}
	rec.normalize(slotID)
	return rec, nil
}
