package placements

import (
	"context"
	"time"
)

type EventType string

const (
	EventPlacementActivated EventType = "PLACEMENT_ACTIVATED"
	EventPlacementPromoted  EventType = "PLACEMENT_PROMOTED"
	EventPlacementQueued    EventType = "PLACEMENT_QUEUED"
	EventPlacementExpired   EventType = "PLACEMENT_EXPIRED"
	EventPlacementCancelled EventType = "PLACEMENT_CANCELLED"
)

// PlacementEvent describes one lifecycle transition. It is only emitted after
// the transition has been durably stored.
type PlacementEvent struct {
	Type          EventType  `json:"type"`
	SlotID        string     `json:"slotId"`
	PlacementID   string     `json:"placementId"`
	BidderAddress string     `json:"bidderAddress"`
	Status        Status     `json:"status"`
	EffectiveBid  string     `json:"effectiveBid"`
	QueuePosition *int       `json:"queuePosition,omitempty"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
}

// EventPublisher delivers placement events to interested consumers.
type EventPublisher interface {
	PublishPlacementEvent(ctx context.Context, event PlacementEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishPlacementEvent(context.Context, PlacementEvent) error { return nil }

func newPlacementEvent(t EventType, p *Placement, now time.Time) PlacementEvent {
	c := p.Clone()
	return PlacementEvent{
		Type:          t,
		SlotID:        c.SlotID,
		PlacementID:   c.PlacementID,
		BidderAddress: c.BidderAddress,
		Status:        c.Status,
		EffectiveBid:  c.EffectiveBid().String(),
		StartsAt:      c.StartsAt,
		ExpiresAt:     c.ExpiresAt,
		OccurredAt:    now,
	}
}
