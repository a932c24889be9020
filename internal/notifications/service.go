package notifications

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"adslot/internal/placements"
	"adslot/pkg/logger"
)

// LogPublisher writes placement events to the application log. It is used
// when Kafka is disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logger.GetDefault()}
}

func (p *LogPublisher) PublishPlacementEvent(ctx context.Context, event placements.PlacementEvent) error {
	p.log.InfoWithContext(ctx, "Placement event", map[string]interface{}{
		"type":          string(event.Type),
		"slot_id":       event.SlotID,
		"placement_id":  event.PlacementID,
		"status":        string(event.Status),
		"effective_bid": event.EffectiveBid,
	})
	return nil
}

// FanOut delivers every event to all publishers and reports every failure.
type FanOut []placements.EventPublisher

func (f FanOut) PublishPlacementEvent(ctx context.Context, event placements.PlacementEvent) error {
	var result *multierror.Error
	for _, p := range f {
		if err := p.PublishPlacementEvent(ctx, event); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
