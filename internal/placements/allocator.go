package placements

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/raulk/clock"
	"github.com/shopspring/decimal"

	"adslot/pkg/logger"
	"adslot/pkg/metrics"
)

// Allocator is the slot occupancy state machine. It owns the single-occupant
// rule, the bid ordered queue and lazy expiry with promotion.
type Allocator interface {
	SubmitClaim(ctx context.Context, claim Claim) (*ClaimResult, error)
	GetOccupant(ctx context.Context, slotID string) (*Placement, error)
	GetQueueInfo(ctx context.Context, slotID, placementID string) (*QueueInfo, error)
	Cancel(ctx context.Context, slotID, placementID, bidderAddress string) (*Placement, error)
	ListActive(ctx context.Context) ([]*Placement, error)

	// ValidateClaim runs the checks SubmitClaim runs before touching the
	// store. Checkout uses it to refuse a claim before settling payment.
	ValidateClaim(ctx context.Context, claim Claim) error

	// SweepExpired evicts and promotes across every stored slot and returns
	// how many occupants expired.
	SweepExpired(ctx context.Context) (int, error)
}

// AllocatorConfig contains configuration for the allocator
type AllocatorConfig struct {
	// StoreTimeout bounds every store call.
	StoreTimeout time.Duration
	// SlowStoreThreshold logs store calls slower than this. Zero disables it.
	SlowStoreThreshold time.Duration
	Currency           string
	Clock              clock.Clock
}

// DefaultAllocatorConfig returns default allocator configuration
func DefaultAllocatorConfig() *AllocatorConfig {
	return &AllocatorConfig{
		StoreTimeout:       5 * time.Second,
		SlowStoreThreshold: time.Second,
		Currency:           DefaultCurrency,
		Clock:              clock.New(),
	}
}

type allocator struct {
	store   Store
	locker  Locker
	catalog SlotCatalog
	events  EventPublisher
	clock   clock.Clock
	config  *AllocatorConfig
	log     *logger.Logger
}

func NewAllocator(store Store, locker Locker, catalog SlotCatalog, events EventPublisher, config *AllocatorConfig) Allocator {
	if config == nil {
		config = DefaultAllocatorConfig()
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if locker == nil {
		locker = NewKeyedLocker()
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &allocator{
		store:   store,
		locker:  locker,
		catalog: catalog,
		events:  events,
		clock:   config.Clock,
		config:  config,
		log:     logger.GetDefault(),
	}
}

func (a *allocator) SubmitClaim(ctx context.Context, claim Claim) (*ClaimResult, error) {
	placement, err := a.newPlacement(ctx, claim)
	if err != nil {
		metrics.ClaimsSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}

	unlock, err := a.locker.Lock(ctx, claim.SlotID)
	if err != nil {
		metrics.ClaimsSubmitted.WithLabelValues("failed").Inc()
		return nil, err
	}
	defer unlock()

	rec, err := a.loadForUpdate(ctx, claim.SlotID)
	if err != nil {
		metrics.ClaimsSubmitted.WithLabelValues("failed").Inc()
		return nil, err
	}

	now := a.clock.Now()
	events, err := a.settle(rec, now)
	if err != nil {
		metrics.ClaimsSubmitted.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := &ClaimResult{PlacementID: placement.PlacementID}
	if rec.ActivePlacement == nil {
		if err := placement.activate(now); err != nil {
			metrics.ClaimsSubmitted.WithLabelValues("failed").Inc()
			return nil, err
		}
		rec.SetActive(placement)
		result.ActivationStatus = StatusActive
		events = append(events, newPlacementEvent(EventPlacementActivated, placement, now))
	} else {
		position := rec.PushQueued(placement)
		result.ActivationStatus = StatusQueued
		result.QueuePosition = position
		evt := newPlacementEvent(EventPlacementQueued, placement, now)
		evt.QueuePosition = &position
		events = append(events, evt)
	}
	rec.LastUpdated = now

	if err := a.save(ctx, rec); err != nil {
		metrics.ClaimsSubmitted.WithLabelValues("failed").Inc()
		return nil, err
	}

	unlock()

	metrics.ClaimsSubmitted.WithLabelValues(string(result.ActivationStatus)).Inc()
	a.report(ctx, rec, events)

	result.Placement = placement.Clone()
	return result, nil
}

func (a *allocator) ValidateClaim(ctx context.Context, claim Claim) error {
	_, err := a.newPlacement(ctx, claim)
	return err
}

func (a *allocator) GetOccupant(ctx context.Context, slotID string) (*Placement, error) {
	rec, err := a.load(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !needsSettling(rec, a.clock.Now()) {
		return rec.ActivePlacement.Clone(), nil
	}

	active, _, err := a.settleSlot(ctx, slotID)
	return active, err
}

func (a *allocator) GetQueueInfo(ctx context.Context, slotID, placementID string) (*QueueInfo, error) {
	rec, err := a.load(ctx, slotID)
	if err != nil {
		return nil, err
	}
	now := a.clock.Now()

	info := &QueueInfo{
		SlotID:       slotID,
		TotalInQueue: len(rec.Queue),
		IsAvailable:  rec.GetActive(now) == nil,
		Queue:        make([]*Placement, 0, len(rec.Queue)),
	}
	for _, p := range rec.Queue {
		info.Queue = append(info.Queue, p.Clone())
	}
	if rec.ActivePlacement != nil && rec.ActivePlacement.ExpiresAt != nil {
		next := *rec.ActivePlacement.ExpiresAt
		info.NextActivation = &next
	}

	switch {
	case placementID == "":
		info.Position = info.TotalInQueue
	case rec.ActivePlacement != nil && rec.ActivePlacement.PlacementID == placementID:
		info.Position = 0
	default:
		idx := rec.QueuePosition(placementID)
		if idx < 0 {
			return nil, fmt.Errorf("placement %s on slot %s: %w", placementID, slotID, ErrPlacementNotFound)
		}
		info.Position = idx
	}
	return info, nil
}

func (a *allocator) Cancel(ctx context.Context, slotID, placementID, bidderAddress string) (*Placement, error) {
	unlock, err := a.locker.Lock(ctx, slotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := a.loadForUpdate(ctx, slotID)
	if err != nil {
		return nil, err
	}
	now := a.clock.Now()
	events, err := a.settle(rec, now)
	if err != nil {
		return nil, err
	}

	if rec.ActivePlacement != nil && rec.ActivePlacement.PlacementID == placementID {
		return nil, fmt.Errorf("placement %s is active: %w", placementID, ErrNotCancellable)
	}
	idx := rec.QueuePosition(placementID)
	if idx < 0 {
		return nil, fmt.Errorf("placement %s on slot %s: %w", placementID, slotID, ErrPlacementNotFound)
	}
	if !strings.EqualFold(rec.Queue[idx].BidderAddress, bidderAddress) {
		return nil, fmt.Errorf("placement %s belongs to another bidder: %w", placementID, ErrNotCancellable)
	}

	cancelled := rec.RemoveQueued(placementID)
	if err := cancelled.transitionTo(StatusCancelled); err != nil {
		return nil, err
	}
	rec.LastUpdated = now
	events = append(events, newPlacementEvent(EventPlacementCancelled, cancelled, now))

	if err := a.save(ctx, rec); err != nil {
		return nil, err
	}
	unlock()

	a.report(ctx, rec, events)
	return cancelled.Clone(), nil
}

func (a *allocator) ListActive(ctx context.Context) ([]*Placement, error) {
	ids, err := a.slotIDs(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*Placement, 0, len(ids))
	for _, id := range ids {
		p, err := a.GetOccupant(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			active = append(active, p)
		}
	}
	return active, nil
}

func (a *allocator) SweepExpired(ctx context.Context) (int, error) {
	ids, err := a.slotIDs(ctx)
	if err != nil {
		return 0, err
	}

	var result *multierror.Error
	expired := 0
	for _, id := range ids {
		rec, err := a.load(ctx, id)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if !needsSettling(rec, a.clock.Now()) {
			continue
		}
		_, events, err := a.settleSlot(ctx, id)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		for _, evt := range events {
			if evt.Type == EventPlacementExpired {
				expired++
			}
		}
	}
	return expired, result.ErrorOrNil()
}

// settleSlot takes the slot lock, evicts an expired occupant, promotes the
// queue head into a free slot and stores the outcome.
func (a *allocator) settleSlot(ctx context.Context, slotID string) (*Placement, []PlacementEvent, error) {
	unlock, err := a.locker.Lock(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	rec, err := a.loadForUpdate(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}
	now := a.clock.Now()
	events, err := a.settle(rec, now)
	if err != nil {
		return nil, nil, err
	}
	if len(events) > 0 {
		rec.LastUpdated = now
		if err := a.save(ctx, rec); err != nil {
			return nil, nil, err
		}
		unlock()
		a.report(ctx, rec, events)
	}
	return rec.ActivePlacement.Clone(), events, nil
}

// settle applies lazy expiry to rec in memory. An expired occupant is
// dropped and, whenever the slot is free, exactly one queued placement is
// promoted with a fresh window of its own duration.
func (a *allocator) settle(rec *SlotRecord, now time.Time) ([]PlacementEvent, error) {
	var events []PlacementEvent

	if active := rec.ActivePlacement; active != nil && active.IsExpiredAt(now) {
		if err := active.transitionTo(StatusExpired); err != nil {
			return nil, err
		}
		rec.ClearActive()
		events = append(events, newPlacementEvent(EventPlacementExpired, active, now))
	}

	if rec.ActivePlacement == nil {
		if next := rec.PopQueueHead(); next != nil {
			if err := next.activate(now); err != nil {
				return nil, err
			}
			rec.SetActive(next)
			events = append(events, newPlacementEvent(EventPlacementPromoted, next, now))
		}
	}
	return events, nil
}

func needsSettling(rec *SlotRecord, now time.Time) bool {
	if rec.ActivePlacement == nil {
		return len(rec.Queue) > 0
	}
	return rec.ActivePlacement.IsExpiredAt(now)
}

func (a *allocator) newPlacement(ctx context.Context, claim Claim) (*Placement, error) {
	if strings.TrimSpace(claim.SlotID) == "" {
		return nil, fmt.Errorf("slot id is required: %w", ErrInvalidClaim)
	}
	if strings.TrimSpace(claim.BidderAddress) == "" {
		return nil, fmt.Errorf("bidder address is required: %w", ErrInvalidClaim)
	}
	if strings.TrimSpace(claim.ContentRef) == "" {
		return nil, fmt.Errorf("content reference is required: %w", ErrInvalidClaim)
	}
	if claim.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d minutes: %w", claim.DurationMinutes, ErrInvalidDuration)
	}

	price, err := parseAmount("price", claim.Price)
	if err != nil {
		return nil, err
	}
	var bid *decimal.Decimal
	if claim.BidAmount != nil {
		parsed, err := parseAmount("bid amount", *claim.BidAmount)
		if err != nil {
			return nil, err
		}
		bid = &parsed
	}

	basePrice, found, err := a.catalog.LookupBasePrice(ctx, claim.SlotID)
	if err != nil {
		return nil, storageError("lookup slot", err)
	}
	if !found {
		return nil, fmt.Errorf("slot %s: %w", claim.SlotID, ErrSlotNotFound)
	}

	p := &Placement{
		SlotID:          claim.SlotID,
		BidderAddress:   claim.BidderAddress,
		ContentRef:      claim.ContentRef,
		ContentURL:      claim.ContentURL,
		BasePrice:       price,
		BidAmount:       bid,
		Currency:        a.config.Currency,
		DurationMinutes: claim.DurationMinutes,
		TransactionRef:  claim.TransactionRef,
		Status:          StatusQueued,
	}
	if effective := p.EffectiveBid(); effective.LessThan(basePrice) {
		return nil, fmt.Errorf("effective bid %s below base price %s: %w", effective, basePrice, ErrBidTooLow)
	}

	now := a.clock.Now()
	p.CreatedAt = now
	p.PlacementID = NewPlacementID(claim.SlotID, now)
	return p, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number: %w", field, value, ErrInvalidBid)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s %s is negative: %w", field, amount, ErrInvalidBid)
	}
	return amount, nil
}

func (a *allocator) load(ctx context.Context, slotID string) (*SlotRecord, error) {
	return a.loadWith(ctx, "load", slotID, a.store.Load)
}

// loadForUpdate reads the latest committed record. Callers hold the slot lock.
func (a *allocator) loadForUpdate(ctx context.Context, slotID string) (*SlotRecord, error) {
	return a.loadWith(ctx, "load_for_update", slotID, func(ctx context.Context, id string) (*SlotRecord, error) {
		return loadForUpdate(ctx, a.store, id)
	})
}

func (a *allocator) loadWith(ctx context.Context, op, slotID string, fetch func(context.Context, string) (*SlotRecord, error)) (*SlotRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
	defer cancel()

	start := time.Now()
	rec, err := fetch(ctx, slotID)
	a.observe(ctx, op, slotID, start)
	if err != nil {
		return nil, storageError("load slot "+slotID, err)
	}
	if rec == nil {
		rec = NewSlotRecord(slotID)
	}
	return rec, nil
}

func (a *allocator) save(ctx context.Context, rec *SlotRecord) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
	defer cancel()

	start := time.Now()
	err := a.store.Save(ctx, rec)
	a.observe(ctx, "save", rec.SlotID, start)
	return storageError("save slot "+rec.SlotID, err)
}

func (a *allocator) slotIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
	defer cancel()

	start := time.Now()
	ids, err := a.store.SlotIDs(ctx)
	a.observe(ctx, "slot_ids", "", start)
	if err != nil {
		return nil, storageError("list slots", err)
	}
	return ids, nil
}

func (a *allocator) observe(ctx context.Context, op, slotID string, start time.Time) {
	metrics.ObserveStore(op, start)
	if threshold := a.config.SlowStoreThreshold; threshold > 0 {
		if elapsed := time.Since(start); elapsed > threshold {
			a.log.LogSlowStoreCall(ctx, op, slotID, elapsed)
		}
	}
}

// report runs after a successful save, once the slot lock is released.
// Publish failures never fail the operation.
func (a *allocator) report(ctx context.Context, rec *SlotRecord, events []PlacementEvent) {
	metrics.QueueDepth.WithLabelValues(rec.SlotID).Set(float64(len(rec.Queue)))

	for _, evt := range events {
		switch evt.Type {
		case EventPlacementActivated, EventPlacementPromoted:
			if evt.Type == EventPlacementPromoted {
				metrics.PlacementsPromoted.Inc()
			}
			a.log.LogPlacementActivated(ctx, evt.SlotID, evt.PlacementID, evt.BidderAddress, *evt.ExpiresAt)
		case EventPlacementQueued:
			a.log.LogPlacementQueued(ctx, evt.SlotID, evt.PlacementID, evt.BidderAddress, *evt.QueuePosition)
		case EventPlacementExpired:
			metrics.PlacementsExpired.Inc()
			a.log.LogPlacementExpired(ctx, evt.SlotID, evt.PlacementID)
		case EventPlacementCancelled:
			metrics.PlacementsCancelled.Inc()
			a.log.LogPlacementCancelled(ctx, evt.SlotID, evt.PlacementID, evt.BidderAddress)
		}

		if err := a.events.PublishPlacementEvent(ctx, evt); err != nil {
			a.log.WithSlotID(evt.SlotID).
				WithFields(map[string]interface{}{"placement_id": evt.PlacementID, "type": string(evt.Type)}).
				ErrorWithContext(ctx, "Failed to publish placement event", err, nil)
		}
	}
}
