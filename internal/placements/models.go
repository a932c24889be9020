package placements

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USDC"

// Placement is one advertiser's paid claim on a slot.
type Placement struct {
	SlotID          string           `json:"slotId"`
	PlacementID     string           `json:"placementId"`
	BidderAddress   string           `json:"bidderAddress"`
	ContentRef      string           `json:"contentRef"`
	ContentURL      string           `json:"contentUrl,omitempty"`
	BasePrice       decimal.Decimal  `json:"basePrice"`
	BidAmount       *decimal.Decimal `json:"bidAmount,omitempty"`
	Currency        string           `json:"currency"`
	DurationMinutes int              `json:"durationMinutes"`
	StartsAt        *time.Time       `json:"startsAt,omitempty"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	Status          Status           `json:"status"`
	TransactionRef  string           `json:"transactionRef,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// NewPlacementID builds "placement-<slot>-<unix millis>-<8 hex>".
func NewPlacementID(slotID string, now time.Time) string {
	return fmt.Sprintf("placement-%s-%d-%s", slotID, now.UnixMilli(), uuid.NewString()[:8])
}

// EffectiveBid is the number the queue sorts by.
func (p *Placement) EffectiveBid() decimal.Decimal {
	if p.BidAmount != nil {
		return *p.BidAmount
	}
	return p.BasePrice
}

// Duration converts DurationMinutes to a time.Duration.
func (p *Placement) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

// IsExpiredAt reports expiresAt <= now. A placement that never started is not expired.
func (p *Placement) IsExpiredAt(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

func (p *Placement) activate(now time.Time) error {
	if err := p.transitionTo(StatusActive); err != nil {
		return err
	}
	starts := now
	expires := now.Add(p.Duration())
	p.StartsAt = &starts
	p.ExpiresAt = &expires
	return nil
}

func (p *Placement) transitionTo(next Status) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("placement %s from %s to %s: %w", p.PlacementID, p.Status, next, ErrInvalidTransition)
	}
	p.Status = next
	return nil
}

// Clone returns a deep copy.
func (p *Placement) Clone() *Placement {
	if p == nil {
		return nil
	}
	c := *p
	if p.BidAmount != nil {
		bid := *p.BidAmount
		c.BidAmount = &bid
	}
	if p.StartsAt != nil {
		t := *p.StartsAt
		c.StartsAt = &t
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// Claim is a paid request to occupy a slot.
type Claim struct {
	SlotID          string
	BidderAddress   string
	ContentRef      string
	ContentURL      string
	Price           string
	BidAmount       *string
	DurationMinutes int
	TransactionRef  string
}

// ClaimResult is what SubmitClaim reports after a durable write.
type ClaimResult struct {
	PlacementID      string     `json:"placementId"`
	ActivationStatus Status     `json:"activationStatus"`
	QueuePosition    int        `json:"queuePosition"`
	Placement        *Placement `json:"placement"`
}

// QueueInfo is the pollable view of a slot's waiting line.
type QueueInfo struct {
	SlotID         string       `json:"slotId"`
	Position       int          `json:"position"`
	TotalInQueue   int          `json:"totalInQueue"`
	NextActivation *time.Time   `json:"nextActivation,omitempty"`
	IsAvailable    bool         `json:"isAvailable"`
	Queue          []*Placement `json:"queue"`
}
