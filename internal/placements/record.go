package placements

import (
	"slices"
	"time"
)

// SlotRecord is the persisted unit for one slot: its occupant and its waiting
// line. Stores replace it whole.
type SlotRecord struct {
	SlotID          string       `json:"slotId"`
	ActivePlacement *Placement   `json:"activePlacement"`
	Queue           []*Placement `json:"queue,omitempty"`
	LastUpdated     time.Time    `json:"lastUpdated"`

	// Version is the optimistic concurrency token. Zero means never stored.
	Version int64 `json:"version"`
}

// NewSlotRecord returns an empty record for slotID.
func NewSlotRecord(slotID string) *SlotRecord {
	return &SlotRecord{SlotID: slotID}
}

// GetActive returns the occupant, or nil when there is none or it has
// expired by now. It never evicts.
func (r *SlotRecord) GetActive(now time.Time) *Placement {
	if r.ActivePlacement == nil || r.ActivePlacement.IsExpiredAt(now) {
		return nil
	}
	return r.ActivePlacement
}

// SetActive replaces the occupant.
func (r *SlotRecord) SetActive(p *Placement) {
	r.ActivePlacement = p
}

// ClearActive removes the occupant.
func (r *SlotRecord) ClearActive() {
	r.ActivePlacement = nil
}

// GetQueue returns the queued placements in priority order.
func (r *SlotRecord) GetQueue() []*Placement {
	return slices.Clone(r.Queue)
}

// PushQueued inserts p keeping the queue ordered and returns its position.
func (r *SlotRecord) PushQueued(p *Placement) int {
	idx := insertionIndex(r.Queue, p)
	r.Queue = slices.Insert(r.Queue, idx, p)
	return idx
}

// PopQueueHead removes and returns the highest priority placement. The queue
// is dropped entirely once empty.
func (r *SlotRecord) PopQueueHead() *Placement {
	if len(r.Queue) == 0 {
		r.Queue = nil
		return nil
	}
	head := r.Queue[0]
	r.Queue = r.Queue[1:]
	if len(r.Queue) == 0 {
		r.Queue = nil
	}
	return head
}

// RemoveQueued takes placementID out of the queue.
func (r *SlotRecord) RemoveQueued(placementID string) *Placement {
	idx := r.QueuePosition(placementID)
	if idx < 0 {
		return nil
	}
	removed := r.Queue[idx]
	r.Queue = slices.Delete(r.Queue, idx, idx+1)
	if len(r.Queue) == 0 {
		r.Queue = nil
	}
	return removed
}

// QueuePosition is the 0-indexed position of placementID, or -1.
func (r *SlotRecord) QueuePosition(placementID string) int {
	return slices.IndexFunc(r.Queue, func(p *Placement) bool {
		return p.PlacementID == placementID
	})
}

// IsEmpty reports whether the record holds nothing worth persisting.
func (r *SlotRecord) IsEmpty() bool {
	return r.ActivePlacement == nil && len(r.Queue) == 0
}

// Clone returns a deep copy.
func (r *SlotRecord) Clone() *SlotRecord {
	if r == nil {
		return nil
	}
	c := &SlotRecord{
		SlotID:          r.SlotID,
		ActivePlacement: r.ActivePlacement.Clone(),
		LastUpdated:     r.LastUpdated,
		Version:         r.Version,
	}
	if len(r.Queue) > 0 {
		c.Queue = make([]*Placement, len(r.Queue))
		for i, p := range r.Queue {
			c.Queue[i] = p.Clone()
		}
	}
	return c
}

// normalize repairs fields a backend may have left out.
func (r *SlotRecord) normalize(slotID string) {
	if r.SlotID == "" {
		r.SlotID = slotID
	}
	// Records written without a status take the one implied by their position.
	if r.ActivePlacement != nil && !r.ActivePlacement.Status.IsValid() {
		r.ActivePlacement.Status = StatusActive
	}
	if len(r.Queue) == 0 {
		r.Queue = nil
		return
	}
	for _, p := range r.Queue {
		if !p.Status.IsValid() {
			p.Status = StatusQueued
		}
	}
	sortQueue(r.Queue)
}
