package placements

import (
	"context"
	"errors"
	"fmt"

	"adslot/internal/payments"
)

var (
	ErrInvalidDuration        = errors.New("invalid duration")
	ErrInvalidBid             = errors.New("invalid bid")
	ErrBidTooLow              = errors.New("bid below slot base price")
	ErrSlotNotFound           = errors.New("slot not found")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrPlacementNotFound  = errors.New("placement not found")
	ErrNotCancellable     = errors.New("placement cannot be cancelled")
	ErrInvalidClaim       = errors.New("invalid claim")
	ErrPaymentRejected    = errors.New("payment rejected")
	ErrPaymentUnavailable = errors.New("payment facilitator unavailable")
	ErrInvalidTransition  = errors.New("invalid placement status transition")
)

// storageError normalizes a backend failure. Errors that already carry one of
// the storage sentinels pass through; everything else, deadlines included,
// becomes ErrStorageUnavailable.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrConcurrentModification) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: timed out", op, ErrStorageUnavailable)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// SettledClaimError reports a claim that failed after its payment settled.
// The settlement is kept so the payer can be refunded or the claim replayed.
type SettledClaimError struct {
	Settlement *payments.SettleResponse
	Err        error
}

func (e *SettledClaimError) Error() string {
	return fmt.Sprintf("claim failed after settlement %s: %v", e.Settlement.Transaction, e.Err)
}

func (e *SettledClaimError) Unwrap() error { return e.Err }
