package notifications

import (
	"time"

	"adslot/internal/placements"
)

// MessageVersion is bumped whenever EventMessage changes incompatibly
const MessageVersion = "1.0"

// EventMessage is the JSON value written for every placement event
type EventMessage struct {
	Type          placements.EventType `json:"type"`
	SlotID        string               `json:"slotId"`
	PlacementID   string               `json:"placementId"`
	BidderAddress string               `json:"bidderAddress"`
	Status        placements.Status    `json:"status"`
	EffectiveBid  string               `json:"effectiveBid"`
	QueuePosition *int                 `json:"queuePosition,omitempty"`
	StartsAt      *time.Time           `json:"startsAt,omitempty"`
	ExpiresAt     *time.Time           `json:"expiresAt,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
	Version       string               `json:"version"`
}

func NewEventMessage(event placements.PlacementEvent) EventMessage {
	return EventMessage{
		Type:          event.Type,
		SlotID:        event.SlotID,
		PlacementID:   event.PlacementID,
		BidderAddress: event.BidderAddress,
		Status:        event.Status,
		EffectiveBid:  event.EffectiveBid,
		QueuePosition: event.QueuePosition,
		StartsAt:      event.StartsAt,
		ExpiresAt:     event.ExpiresAt,
		OccurredAt:    event.OccurredAt,
		Version:       MessageVersion,
	}
}
