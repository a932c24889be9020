package placements

import "adslot/internal/payments"

// SubmitClaimRequest is a claim whose payment was settled elsewhere.
type SubmitClaimRequest struct {
	SlotID          string  `json:"slotId" binding:"required,slot_id"`
	BidderAddress   string  `json:"bidderAddress" binding:"required,evm_address"`
	ContentRef      string  `json:"contentRef" binding:"required,max=255"`
	ContentURL      string  `json:"contentUrl" binding:"omitempty,url,max=1000"`
	Price           string  `json:"price" binding:"required,decimal_amount"`
	BidAmount       *string `json:"bidAmount" binding:"omitempty,decimal_amount"`
	DurationMinutes int     `json:"durationMinutes" binding:"required"`
	TransactionRef  string  `json:"transactionRef" binding:"omitempty,max=100"`
}

func (r SubmitClaimRequest) ToClaim() Claim {
	return Claim{
		SlotID:          r.SlotID,
		BidderAddress:   r.BidderAddress,
		ContentRef:      r.ContentRef,
		ContentURL:      r.ContentURL,
		Price:           r.Price,
		BidAmount:       r.BidAmount,
		DurationMinutes: r.DurationMinutes,
		TransactionRef:  r.TransactionRef,
	}
}

// CheckoutPaymentRequest pays for a claim through the facilitator. The
// payload may come in the body or in the X-PAYMENT header.
type CheckoutPaymentRequest struct {
	PaymentPayload  *payments.PaymentPayload `json:"paymentPayload"`
	SlotID          string                   `json:"slotId" binding:"required,slot_id"`
	ContentRef      string                   `json:"contentRef" binding:"required,max=255"`
	ContentURL      string                   `json:"contentUrl" binding:"omitempty,url,max=1000"`
	BidAmount       *string                  `json:"bidAmount" binding:"omitempty,decimal_amount"`
	DurationMinutes int                      `json:"durationMinutes" binding:"required"`
}

type QueueInfoQuery struct {
	PlacementID string `form:"placement_id"`
}

// CancelQuery names the bidder when an admin cancels on their behalf.
// Advertisers always cancel as the token subject.
type CancelQuery struct {
	Bidder string `form:"bidder" binding:"omitempty,evm_address"`
}
