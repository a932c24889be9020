package payments

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	X402Version = 1
	SchemeExact = "exact"

	// PaymentHeader carries a base64 encoded PaymentPayload
	PaymentHeader = "X-PAYMENT"
)

var (
	// ErrUnavailable means the facilitator could not be reached or failed
	// without judging the payment.
	ErrUnavailable = errors.New("payment facilitator unavailable")
	// ErrRejected means the facilitator refused the request itself.
	ErrRejected = errors.New("payment rejected by facilitator")
	// ErrInvalidRequirements is returned when requirements cannot be built.
	ErrInvalidRequirements = errors.New("invalid payment requirements")
	ErrInvalidPayload      = errors.New("invalid payment payload")
)

// PaymentPayload is the signed authorization produced by the payer's wallet.
// The scheme specific part is passed through untouched.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

func (p *PaymentPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("missing payload: %w", ErrInvalidPayload)
	}
	if p.Scheme == "" || p.Network == "" {
		return fmt.Errorf("scheme and network are required: %w", ErrInvalidPayload)
	}
	if len(p.Payload) == 0 || string(p.Payload) == "null" {
		return fmt.Errorf("authorization is required: %w", ErrInvalidPayload)
	}
	return nil
}

// DecodePaymentHeader parses the X-PAYMENT header value.
func DecodePaymentHeader(header string) (*PaymentPayload, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("empty header: %w", ErrInvalidPayload)
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(header); err != nil {
			return nil, fmt.Errorf("header is not base64: %w", ErrInvalidPayload)
		}
	}
	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("header is not a payment payload: %w", ErrInvalidPayload)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PaymentRequirements describe what the payer must authorize.
type PaymentRequirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

type SupportedKind struct {
	X402Version int               `json:"x402Version"`
	Scheme      string            `json:"scheme"`
	Network     string            `json:"network"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// Supports reports whether the facilitator accepts scheme on network.
func (s *SupportedResponse) Supports(scheme, network string) bool {
	for _, k := range s.Kinds {
		if k.Scheme == scheme && k.Network == network {
			return true
		}
	}
	return false
}

type facilitatorRequest struct {
	X402Version         int                  `json:"x402Version"`
	PaymentPayload      *PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements *PaymentRequirements `json:"paymentRequirements"`
}

type facilitatorError struct {
	Error string `json:"error"`
}
