package placements

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps records in a process-local map. Records are copied on the
// way in and out so callers never share state with the store. Versions
// outlive deleted records so a slot never reuses a version number.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]*SlotRecord
	versions map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]*SlotRecord),
		versions: make(map[string]int64),
	}
}

func (m *MemoryStore) Load(ctx context.Context, slotID string) (*SlotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec, ok := m.records[slotID]; ok {
		return rec.Clone(), nil
	}
	rec := NewSlotRecord(slotID)
	rec.Version = m.versions[slotID]
	return rec, nil
}

func (m *MemoryStore) Save(ctx context.Context, record *SlotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.versions[record.SlotID]
	if current != record.Version {
		return fmt.Errorf("slot %s at version %d, write based on %d: %w",
			record.SlotID, current, record.Version, ErrConcurrentModification)
	}

	if record.IsEmpty() && current == 0 {
		return nil
	}

	record.Version = current + 1
	m.versions[record.SlotID] = record.Version
	if record.IsEmpty() {
		delete(m.records, record.SlotID)
		return nil
	}
	m.records[record.SlotID] = record.Clone()
	return nil
}

func (m *MemoryStore) SlotIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
