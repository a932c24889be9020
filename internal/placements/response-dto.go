package placements

import (
	"time"

	"adslot/internal/payments"
)

type ClaimResponse struct {
	PlacementID      string     `json:"placementId"`
	ActivationStatus Status     `json:"activationStatus"`
	QueuePosition    int        `json:"queuePosition"`
	Placement        *Placement `json:"placement"`
}

type CheckoutResponse struct {
	ClaimResponse
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer"`
}

type OccupantResponse struct {
	SlotID      string     `json:"slotId"`
	IsAvailable bool       `json:"isAvailable"`
	Placement   *Placement `json:"placement,omitempty"`
}

type QueueInfoResponse struct {
	SlotID         string       `json:"slotId"`
	Position       int          `json:"position"`
	TotalInQueue   int          `json:"totalInQueue"`
	NextActivation *time.Time   `json:"nextActivation,omitempty"`
	IsAvailable    bool         `json:"isAvailable"`
	Queue          []*Placement `json:"queue"`
}

type ActivePlacementsResponse struct {
	Placements []*Placement `json:"placements"`
	Count      int          `json:"count"`
}

// PaymentRequiredResponse is returned with 402 when checkout is called
// without a payment.
type PaymentRequiredResponse struct {
	X402Version int                             `json:"x402Version"`
	Error       string                          `json:"error"`
	Accepts     []*payments.PaymentRequirements `json:"accepts"`
}

func NewClaimResponse(result *ClaimResult) ClaimResponse {
	return ClaimResponse{
		PlacementID:      result.PlacementID,
		ActivationStatus: result.ActivationStatus,
		QueuePosition:    result.QueuePosition,
		Placement:        result.Placement,
	}
}

func NewQueueInfoResponse(info *QueueInfo) QueueInfoResponse {
	return QueueInfoResponse{
		SlotID:         info.SlotID,
		Position:       info.Position,
		TotalInQueue:   info.TotalInQueue,
		NextActivation: info.NextActivation,
		IsAvailable:    info.IsAvailable,
		Queue:          info.Queue,
	}
}
