package placements

import (
	"context"

	"github.com/raulk/clock"
)

// Store persists slot records. Implementations must treat Save as a whole
// record replacement: a record that IsEmpty is deleted. Save fails with
// ErrConcurrentModification when the stored version no longer matches
// record.Version and bumps record.Version on success.
type Store interface {
	Load(ctx context.Context, slotID string) (*SlotRecord, error)
	Save(ctx context.Context, record *SlotRecord) error
	SlotIDs(ctx context.Context) ([]string, error)
}

// UpdateLoader is implemented by stores whose Load may answer from a cache.
// LoadForUpdate always returns the latest committed record and is what
// writers use while holding the slot lock.
type UpdateLoader interface {
	LoadForUpdate(ctx context.Context, slotID string) (*SlotRecord, error)
}

func loadForUpdate(ctx context.Context, store Store, slotID string) (*SlotRecord, error) {
	if u, ok := store.(UpdateLoader); ok {
		return u.LoadForUpdate(ctx, slotID)
	}
	return store.Load(ctx, slotID)
}

// Slots exposes the per-operation store contract on top of a Store. Each call
// is its own load and save; the allocator works on records directly so that
// one claim is one write.
type Slots struct {
	store Store
	clock clock.Clock
}

func NewSlots(store Store, clk clock.Clock) *Slots {
	if clk == nil {
		clk = clock.New()
	}
	return &Slots{store: store, clock: clk}
}

func (s *Slots) GetActive(ctx context.Context, slotID string) (*Placement, error) {
	rec, err := s.store.Load(ctx, slotID)
	if err != nil {
		return nil, storageError("get active", err)
	}
	return rec.GetActive(s.clock.Now()), nil
}

func (s *Slots) SetActive(ctx context.Context, slotID string, p *Placement) error {
	return s.update(ctx, slotID, "set active", func(rec *SlotRecord) {
		rec.SetActive(p)
	})
}

func (s *Slots) ClearActive(ctx context.Context, slotID string) error {
	return s.update(ctx, slotID, "clear active", func(rec *SlotRecord) {
		rec.ClearActive()
	})
}

func (s *Slots) GetQueue(ctx context.Context, slotID string) ([]*Placement, error) {
	rec, err := s.store.Load(ctx, slotID)
	if err != nil {
		return nil, storageError("get queue", err)
	}
	return rec.GetQueue(), nil
}

func (s *Slots) PushQueued(ctx context.Context, slotID string, p *Placement) error {
	return s.update(ctx, slotID, "push queued", func(rec *SlotRecord) {
		rec.PushQueued(p)
	})
}

func (s *Slots) PopQueueHead(ctx context.Context, slotID string) (*Placement, error) {
	var head *Placement
	err := s.update(ctx, slotID, "pop queue head", func(rec *SlotRecord) {
		head = rec.PopQueueHead()
	})
	if err != nil {
		return nil, err
	}
	return head, nil
}

func (s *Slots) update(ctx context.Context, slotID, op string, mutate func(*SlotRecord)) error {
	rec, err := loadForUpdate(ctx, s.store, slotID)
	if err != nil {
		return storageError(op, err)
	}
	mutate(rec)
	rec.LastUpdated = s.clock.Now()
	return storageError(op, s.store.Save(ctx, rec))
}
