package placements

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adslot/internal/payments"
	"adslot/internal/shared/middleware"
	"adslot/internal/shared/utils/response"
	"adslot/pkg/logger"
)

type Controller interface {
	SubmitClaim(c *gin.Context)
	Checkout(c *gin.Context)
	GetOccupant(c *gin.Context)
	GetQueueInfo(c *gin.Context)
	CancelQueued(c *gin.Context)
	ListActive(c *gin.Context)
}

type controller struct {
	allocator Allocator
	checkout  Checkout
	publicURL string
}

// NewController builds the placement handlers. checkout may be nil when no
// facilitator is configured; the checkout route then answers 503.
func NewController(allocator Allocator, checkout Checkout, publicURL string) Controller {
	return &controller{allocator: allocator, checkout: checkout, publicURL: publicURL}
}

func (ctrl *controller) SubmitClaim(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.allocator.SubmitClaim(c.Request.Context(), req.ToClaim())
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, claimMessage(result), NewClaimResponse(result), nil)
}

func (ctrl *controller) Checkout(c *gin.Context) {
	if ctrl.checkout == nil {
		response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Checkout is not configured", nil, nil)
		return
	}

	var req CheckoutPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if req.PaymentPayload == nil {
		if header := c.GetHeader(payments.PaymentHeader); header != "" {
			payload, err := payments.DecodePaymentHeader(header)
			if err != nil {
				response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid payment header", nil, err.Error())
				return
			}
			req.PaymentPayload = payload
		}
	}

	checkoutReq := CheckoutRequest{
		PaymentPayload:  req.PaymentPayload,
		SlotID:          req.SlotID,
		ContentRef:      req.ContentRef,
		ContentURL:      req.ContentURL,
		BidAmount:       req.BidAmount,
		DurationMinutes: req.DurationMinutes,
		Resource:        ctrl.publicURL + c.Request.URL.Path,
	}

	if req.PaymentPayload == nil {
		requirements, err := ctrl.checkout.Quote(c.Request.Context(), checkoutReq)
		if err != nil {
			respondError(c, err)
			return
		}
		response.RespondJSON(c, "error", http.StatusPaymentRequired, "Payment required", PaymentRequiredResponse{
			X402Version: payments.X402Version,
			Error:       "X-PAYMENT header is required",
			Accepts:     []*payments.PaymentRequirements{requirements},
		}, nil)
		return
	}

	result, err := ctrl.checkout.Complete(c.Request.Context(), checkoutReq)
	if err != nil {
		respondError(c, err)
		return
	}

	if encoded, err := json.Marshal(result.Settlement); err == nil {
		c.Header("X-PAYMENT-RESPONSE", base64.StdEncoding.EncodeToString(encoded))
	}
	response.RespondJSON(c, "success", http.StatusCreated, claimMessage(result.ClaimResult), CheckoutResponse{
		ClaimResponse: NewClaimResponse(result.ClaimResult),
		Transaction:   result.Settlement.Transaction,
		Network:       result.Settlement.Network,
		Payer:         result.Placement.BidderAddress,
	}, nil)
}

func (ctrl *controller) GetOccupant(c *gin.Context) {
	slotID := c.Param("slot_id")
	placement, err := ctrl.allocator.GetOccupant(c.Request.Context(), slotID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Occupant retrieved successfully", OccupantResponse{
		SlotID:      slotID,
		IsAvailable: placement == nil,
		Placement:   placement,
	}, nil)
}

func (ctrl *controller) GetQueueInfo(c *gin.Context) {
	var query QueueInfoQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	info, err := ctrl.allocator.GetQueueInfo(c.Request.Context(), c.Param("slot_id"), query.PlacementID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Queue info retrieved successfully", NewQueueInfoResponse(info), nil)
}

func (ctrl *controller) CancelQueued(c *gin.Context) {
	var query CancelQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bidder := middleware.GetSubject(c)
	if middleware.GetRole(c) == middleware.RoleAdmin {
		bidder = query.Bidder
	}
	if bidder == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Bidder address is required", nil, nil)
		return
	}

	cancelled, err := ctrl.allocator.Cancel(c.Request.Context(), c.Param("slot_id"), c.Param("placement_id"), bidder)
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Placement cancelled successfully", cancelled, nil)
}

func (ctrl *controller) ListActive(c *gin.Context) {
	active, err := ctrl.allocator.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Active placements retrieved successfully", ActivePlacementsResponse{
		Placements: active,
		Count:      len(active),
	}, nil)
}

func claimMessage(result *ClaimResult) string {
	if result.ActivationStatus == StatusActive {
		return "Placement activated"
	}
	return "Placement queued"
}

// StatusCode maps allocator and checkout errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidBid),
		errors.Is(err, ErrInvalidClaim):
		return http.StatusBadRequest
	case errors.Is(err, ErrBidTooLow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrPlacementNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentRejected):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrPaymentUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, code)
	}
	var settledErr *SettledClaimError
	if errors.As(err, &settledErr) {
		response.RespondJSON(c, "error", code, err.Error(), nil, gin.H{
			"transaction": settledErr.Settlement.Transaction,
			"network":     settledErr.Settlement.Network,
			"payer":       settledErr.Settlement.Payer,
		})
		return
	}
	response.RespondJSON(c, "error", code, err.Error(), nil, nil)
}
