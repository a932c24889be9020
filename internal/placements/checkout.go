package placements

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"adslot/internal/content"
	"adslot/internal/payments"
	"adslot/internal/shared/validation"
	"adslot/internal/slots"
	"adslot/pkg/logger"
	"adslot/pkg/metrics"
)

// CheckoutRequest pays for and submits a claim in one step.
type CheckoutRequest struct {
	PaymentPayload  *payments.PaymentPayload
	SlotID          string
	ContentRef      string
	ContentURL      string
	BidAmount       *string
	DurationMinutes int
	// Resource is the URL the payment authorizes.
	Resource string
}

type CheckoutResult struct {
	*ClaimResult
	Settlement *payments.SettleResponse
}

// Checkout couples the payment facilitator with the allocator.
type Checkout interface {
	// Quote returns the requirements a payer has to authorize for a claim.
	Quote(ctx context.Context, req CheckoutRequest) (*payments.PaymentRequirements, error)
	// Complete verifies and settles the payment, then submits the claim
	// with the payer as bidder.
	Complete(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

type checkout struct {
	allocator   Allocator
	slots       slots.Service
	facilitator payments.Facilitator
	content     content.Store
	settings    payments.Settings
	log         *logger.Logger
}

// NewCheckout wires the checkout flow. contentStore may be nil, in which case
// content URLs are taken from the request as given.
func NewCheckout(allocator Allocator, slotService slots.Service, facilitator payments.Facilitator, contentStore content.Store, settings payments.Settings) Checkout {
	return &checkout{
		allocator:   allocator,
		slots:       slotService,
		facilitator: facilitator,
		content:     contentStore,
		settings:    settings,
		log:         logger.GetDefault(),
	}
}

func (c *checkout) Quote(ctx context.Context, req CheckoutRequest) (*payments.PaymentRequirements, error) {
	requirements, _, err := c.prepare(ctx, req)
	return requirements, err
}

func (c *checkout) Complete(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := req.PaymentPayload.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrPaymentRejected)
	}

	requirements, claim, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	verified, err := c.facilitator.Verify(ctx, req.PaymentPayload, requirements)
	if err != nil {
		metrics.PaymentsSettled.WithLabelValues("verify_failed").Inc()
		return nil, paymentError("verify", err)
	}
	if !verified.IsValid {
		metrics.PaymentsSettled.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("payment invalid: %s: %w", verified.InvalidReason, ErrPaymentRejected)
	}
	if !validation.IsEVMAddress(verified.Payer) {
		metrics.PaymentsSettled.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("facilitator reported payer %q: %w", verified.Payer, ErrPaymentRejected)
	}
	claim.BidderAddress = validation.ChecksumAddress(verified.Payer)

	// Refuse before settling anything the allocator would reject.
	if err := c.allocator.ValidateClaim(ctx, claim); err != nil {
		return nil, err
	}

	settled, err := c.facilitator.Settle(ctx, req.PaymentPayload, requirements)
	if err != nil {
		metrics.PaymentsSettled.WithLabelValues("settle_failed").Inc()
		return nil, paymentError("settle", err)
	}
	if !settled.Success {
		metrics.PaymentsSettled.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("settlement failed: %s: %w", settled.ErrorReason, ErrPaymentRejected)
	}
	metrics.PaymentsSettled.WithLabelValues("settled").Inc()
	c.log.LogPaymentSettled(ctx, claim.SlotID, claim.BidderAddress, settled.Transaction, settled.Network)

	claim.TransactionRef = settled.Transaction
	result, err := c.allocator.SubmitClaim(ctx, claim)
	if err != nil {
		c.log.ErrorWithContext(ctx, "Claim failed after payment settled", err, map[string]interface{}{
			"slot_id":     claim.SlotID,
			"payer":       claim.BidderAddress,
			"transaction": settled.Transaction,
			"network":     settled.Network,
		})
		metrics.PaymentsSettled.WithLabelValues("claim_failed").Inc()
		return nil, &SettledClaimError{Settlement: settled, Err: err}
	}
	return &CheckoutResult{ClaimResult: result, Settlement: settled}, nil
}

// prepare resolves the slot, checks the claim terms against it and builds
// the payment requirements for the effective bid.
func (c *checkout) prepare(ctx context.Context, req CheckoutRequest) (*payments.PaymentRequirements, Claim, error) {
	slot, err := c.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, slots.ErrSlotNotFound) {
			return nil, Claim{}, fmt.Errorf("slot %s: %w", req.SlotID, ErrSlotNotFound)
		}
		return nil, Claim{}, storageError("lookup slot", err)
	}
	if req.DurationMinutes <= 0 || !slot.AllowsDuration(req.DurationMinutes) {
		return nil, Claim{}, fmt.Errorf("slot %s does not offer %d minutes: %w", slot.SlotID, req.DurationMinutes, ErrInvalidDuration)
	}

	price := slot.BasePrice
	if req.BidAmount != nil {
		bid, err := parseAmount("bid amount", *req.BidAmount)
		if err != nil {
			return nil, Claim{}, err
		}
		if bid.LessThan(slot.BasePrice) {
			return nil, Claim{}, fmt.Errorf("bid %s below base price %s: %w", bid, slot.BasePrice, ErrBidTooLow)
		}
		price = bid
	}

	claim := Claim{
		SlotID:          slot.SlotID,
		ContentRef:      req.ContentRef,
		ContentURL:      c.contentURL(req.ContentRef, req.ContentURL),
		Price:           slot.BasePrice.String(),
		BidAmount:       req.BidAmount,
		DurationMinutes: req.DurationMinutes,
	}

	requirements, err := payments.BuildRequirements(c.settings, payments.Quote{
		PayTo:       slot.PublisherWallet,
		Price:       price,
		Resource:    req.Resource,
		Description: describe(slot, price, req.DurationMinutes),
	})
	if err != nil {
		return nil, Claim{}, fmt.Errorf("%v: %w", err, ErrInvalidClaim)
	}
	return requirements, claim, nil
}

func (c *checkout) contentURL(ref, given string) string {
	if given != "" || c.content == nil {
		return given
	}
	canonical, err := content.ParseRef(ref)
	if err != nil {
		return ""
	}
	return c.content.URL(canonical)
}

func describe(slot *slots.AdSlot, price decimal.Decimal, minutes int) string {
	return fmt.Sprintf("Ad placement on %s for %d minutes at %s USDC", slot.Identifier, minutes, price.String())
}

func paymentError(op string, err error) error {
	if errors.Is(err, payments.ErrRejected) || errors.Is(err, payments.ErrInvalidPayload) {
		return fmt.Errorf("%s: %w: %v", op, ErrPaymentRejected, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPaymentUnavailable, err)
}
