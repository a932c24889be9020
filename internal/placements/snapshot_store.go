package placements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raulk/clock"
	"github.com/redis/go-redis/v9"

	"adslot/internal/content"
	"adslot/internal/shared/constants"
)

// HeadPointer tracks the content reference of the newest snapshot.
// CompareAndSwap only moves the head when it still points at old.
type HeadPointer interface {
	Head(ctx context.Context) (string, error)
	CompareAndSwap(ctx context.Context, old, next string) (bool, error)
}

// snapshotDocument is the whole marketplace state as one JSON document.
// Versions keeps an entry for every slot ever written, including slots whose
// record is now empty.
type snapshotDocument struct {
	ActivePlacements map[string]*Placement     `json:"activePlacements"`
	SlotQueues       map[string]*snapshotQueue `json:"slotQueues"`
	Versions         map[string]int64          `json:"versions,omitempty"`
	LastUpdated      time.Time                 `json:"lastUpdated"`
}

type snapshotQueue struct {
	SlotID      string       `json:"slotId"`
	Queue       []*Placement `json:"queue"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

func newSnapshotDocument() *snapshotDocument {
	return &snapshotDocument{
		ActivePlacements: make(map[string]*Placement),
		SlotQueues:       make(map[string]*snapshotQueue),
		Versions:         make(map[string]int64),
	}
}

func (d *snapshotDocument) record(slotID string) *SlotRecord {
	rec := NewSlotRecord(slotID)
	rec.ActivePlacement = d.ActivePlacements[slotID].Clone()
	if q, ok := d.SlotQueues[slotID]; ok {
		for _, p := range q.Queue {
			rec.Queue = append(rec.Queue, p.Clone())
		}
		rec.LastUpdated = q.LastUpdated
	}
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = d.LastUpdated
	}
	rec.Version = d.Versions[slotID]
	rec.normalize(slotID)
	return rec
}

func (d *snapshotDocument) apply(rec *SlotRecord, version int64) {
	if rec.ActivePlacement != nil {
		d.ActivePlacements[rec.SlotID] = rec.ActivePlacement.Clone()
	} else {
		delete(d.ActivePlacements, rec.SlotID)
	}

	if len(rec.Queue) > 0 {
		q := &snapshotQueue{SlotID: rec.SlotID, LastUpdated: rec.LastUpdated}
		for _, p := range rec.Queue {
			q.Queue = append(q.Queue, p.Clone())
		}
		d.SlotQueues[rec.SlotID] = q
	} else {
		delete(d.SlotQueues, rec.SlotID)
	}

	d.Versions[rec.SlotID] = version
	if rec.LastUpdated.After(d.LastUpdated) {
		d.LastUpdated = rec.LastUpdated
	}
}

func (d *snapshotDocument) clone() *snapshotDocument {
	c := newSnapshotDocument()
	c.LastUpdated = d.LastUpdated
	for id, p := range d.ActivePlacements {
		c.ActivePlacements[id] = p.Clone()
	}
	for id, q := range d.SlotQueues {
		cq := &snapshotQueue{SlotID: q.SlotID, LastUpdated: q.LastUpdated}
		for _, p := range q.Queue {
			cq.Queue = append(cq.Queue, p.Clone())
		}
		c.SlotQueues[id] = cq
	}
	for id, v := range d.Versions {
		c.Versions[id] = v
	}
	return c
}

// SnapshotStore keeps every slot in one content addressed document. Readers
// reuse the cached document for up to staleness before checking the head
// again; writers always check the head, upload a new document and swing the
// head pointer to it.
type SnapshotStore struct {
	content   content.Store
	head      HeadPointer
	clock     clock.Clock
	staleness time.Duration

	mu        sync.Mutex
	doc       *snapshotDocument
	headRef   string
	fetchedAt time.Time
}

func NewSnapshotStore(store content.Store, head HeadPointer, staleness time.Duration, clk clock.Clock) *SnapshotStore {
	if staleness <= 0 {
		staleness = constants.TTL_REALTIME_SHORT
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SnapshotStore{
		content:   store,
		head:      head,
		clock:     clk,
		staleness: staleness,
	}
}

// HeadRef returns the reference of the document currently cached.
func (s *SnapshotStore) HeadRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headRef
}

func (s *SnapshotStore) Load(ctx context.Context, slotID string) (*SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx, false); err != nil {
		return nil, err
	}
	return s.doc.record(slotID), nil
}

// LoadForUpdate skips the staleness window and reads the current head.
func (s *SnapshotStore) LoadForUpdate(ctx context.Context, slotID string) (*SlotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx, true); err != nil {
		return nil, err
	}
	return s.doc.record(slotID), nil
}

func (s *SnapshotStore) Save(ctx context.Context, record *SlotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx, true); err != nil {
		return err
	}
	current := s.doc.Versions[record.SlotID]
	if current != record.Version {
		return fmt.Errorf("slot %s at version %d, write based on %d: %w",
			record.SlotID, current, record.Version, ErrConcurrentModification)
	}

	if record.IsEmpty() && current == 0 {
		return nil
	}

	next := s.doc.clone()
	version := current + 1
	next.apply(record, version)
	if now := s.clock.Now(); now.After(next.LastUpdated) {
		next.LastUpdated = now
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w: %v", ErrStorageUnavailable, err)
	}
	ref, err := s.content.Put(ctx, data)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w: %v", ErrStorageUnavailable, err)
	}
	swapped, err := s.head.CompareAndSwap(ctx, s.headRef, ref)
	if err != nil {
		return fmt.Errorf("move snapshot head: %w: %v", ErrStorageUnavailable, err)
	}
	if !swapped {
		// Someone else published first; drop the cache so the next call reads theirs.
		s.fetchedAt = time.Time{}
		return fmt.Errorf("snapshot head moved during write: %w", ErrConcurrentModification)
	}

	s.doc = next
	s.headRef = ref
	s.fetchedAt = s.clock.Now()
	record.Version = version
	return nil
}

func (s *SnapshotStore) SlotIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx, false); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(s.doc.ActivePlacements)+len(s.doc.SlotQueues))
	for id := range s.doc.ActivePlacements {
		seen[id] = struct{}{}
	}
	for id := range s.doc.SlotQueues {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// refresh brings the cached document up to date. Without force the cache is
// trusted for the staleness window. Must be called with s.mu held.
func (s *SnapshotStore) refresh(ctx context.Context, force bool) error {
	now := s.clock.Now()
	if !force && s.doc != nil && now.Sub(s.fetchedAt) < s.staleness {
		return nil
	}

	ref, err := s.head.Head(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot head: %w: %v", ErrStorageUnavailable, err)
	}
	if s.doc != nil && ref == s.headRef {
		s.fetchedAt = now
		return nil
	}

	doc := newSnapshotDocument()
	if ref != "" {
		data, err := s.content.Get(ctx, ref)
		if err != nil {
			return fmt.Errorf("fetch snapshot %s: %w: %v", ref, ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("decode snapshot %s: %w: %v", ref, ErrStorageUnavailable, err)
		}
		if doc.ActivePlacements == nil {
			doc.ActivePlacements = make(map[string]*Placement)
		}
		if doc.SlotQueues == nil {
			doc.SlotQueues = make(map[string]*snapshotQueue)
		}
		if doc.Versions == nil {
			doc.Versions = make(map[string]int64)
		}
	}

	s.doc = doc
	s.headRef = ref
	s.fetchedAt = now
	return nil
}

// MemoryHead is a process local HeadPointer.
type MemoryHead struct {
	mu  sync.Mutex
	ref string
}

func NewMemoryHead(initial string) *MemoryHead {
	return &MemoryHead{ref: initial}
}

func (m *MemoryHead) Head(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref, nil
}

func (m *MemoryHead) CompareAndSwap(ctx context.Context, old, next string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ref != old {
		return false, nil
	}
	m.ref = next
	return true, nil
}

const luaCompareAndSwapHead = `
local current = redis.call("GET", KEYS[1])
if current == false then
    current = ""
end
if current ~= ARGV[1] then
    return 0
end
redis.call("SET", KEYS[1], ARGV[2])
return 1
`

// RedisHead keeps the snapshot head in a Redis key so several processes can
// share one snapshot.
type RedisHead struct {
	redis *redis.Client
	key   string
	cas   *redis.Script
}

func NewRedisHead(client *redis.Client) *RedisHead {
	return &RedisHead{
		redis: client,
		key:   constants.CACHE_KEY_SNAPSHOT_HEAD,
		cas:   redis.NewScript(luaCompareAndSwapHead),
	}
}

func (r *RedisHead) Head(ctx context.Context) (string, error) {
	ref, err := r.redis.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return ref, err
}

func (r *RedisHead) CompareAndSwap(ctx context.Context, old, next string) (bool, error) {
	swapped, err := r.cas.Run(ctx, r.redis, []string{r.key}, old, next).Int()
	if err != nil {
		return false, err
	}
	return swapped == 1, nil
}
