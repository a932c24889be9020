package payments

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAtomicUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0.10", "100000"},
		{"1", "1000000"},
		{"0.000001", "1"},
		{"0.0000001", "1"},
		{"12.3456789", "12345679"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToAtomicUnits(decimal.RequireFromString(tt.amount)))
		})
	}

	back, err := FromAtomicUnits("250000")
	require.NoError(t, err)
	assert.True(t, back.Equal(decimal.RequireFromString("0.25")))

	_, err = FromAtomicUnits("a lot")
	assert.ErrorIs(t, err, ErrInvalidRequirements)
}

func TestBuildRequirements(t *testing.T) {
	req, err := BuildRequirements(Settings{Network: "base-sepolia"}, Quote{
		PayTo:       "0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32",
		Price:       decimal.RequireFromString("0.25"),
		Resource:    "https://api.example/api/v1/placements/checkout",
		Description: "Ad placement",
	})
	require.NoError(t, err)

	assert.Equal(t, SchemeExact, req.Scheme)
	assert.Equal(t, "base-sepolia", req.Network)
	assert.Equal(t, "250000", req.MaxAmountRequired)
	assert.Equal(t, "0x6d63C3DD44983CddEeA8cB2e730b82daE2E91E32", req.PayTo)
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", req.Asset)
	assert.Equal(t, 300, req.MaxTimeoutSeconds)
	assert.Equal(t, "application/json", req.MimeType)
	assert.Equal(t, map[string]string{"name": "USDC", "version": "2"}, req.Extra)
}

func TestBuildRequirementsRejects(t *testing.T) {
	valid := Quote{PayTo: "0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32", Price: decimal.RequireFromString("1")}

	tests := []struct {
		name     string
		settings Settings
		quote    Quote
	}{
		{"zero price", Settings{Network: "base"}, Quote{PayTo: valid.PayTo, Price: decimal.Zero}},
		{"bad payTo", Settings{Network: "base"}, Quote{PayTo: "publisher", Price: valid.Price}},
		{"unknown network", Settings{Network: "dogechain"}, valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRequirements(tt.settings, tt.quote)
			assert.ErrorIs(t, err, ErrInvalidRequirements)
		})
	}

	req, err := BuildRequirements(Settings{Network: "dogechain", Asset: "0x1111111111111111111111111111111111111111", MaxTimeoutSeconds: 60}, valid)
	require.NoError(t, err)
	assert.Equal(t, 60, req.MaxTimeoutSeconds)
}

func TestDecodePaymentHeader(t *testing.T) {
	payload := PaymentPayload{
		X402Version: X402Version,
		Scheme:      SchemeExact,
		Network:     "base",
		Payload:     json.RawMessage(`{"signature":"0xabc"}`),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	for name, enc := range map[string]*base64.Encoding{"std": base64.StdEncoding, "url": base64.URLEncoding} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodePaymentHeader(enc.EncodeToString(raw))
			require.NoError(t, err)
			assert.Equal(t, "base", got.Network)
			assert.JSONEq(t, `{"signature":"0xabc"}`, string(got.Payload))
		})
	}

	_, err = DecodePaymentHeader("")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = DecodePaymentHeader("***")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = DecodePaymentHeader(base64.StdEncoding.EncodeToString([]byte(`{"scheme":"exact"}`)))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
