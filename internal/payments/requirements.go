package payments

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// USDCDecimals is the number of decimals of the USDC token
const USDCDecimals = 6

var usdcAssets = map[string]string{
	"base":         "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	"base-sepolia": "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	"polygon":      "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
	"polygon-amoy": "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
}

// USDCAsset returns the USDC contract for a network.
func USDCAsset(network string) (string, bool) {
	asset, ok := usdcAssets[strings.ToLower(network)]
	return asset, ok
}

// ToAtomicUnits converts a USDC amount to token base units, rounding up so
// the payer never authorizes less than the price.
func ToAtomicUnits(amount decimal.Decimal) string {
	return amount.Shift(USDCDecimals).Ceil().StringFixed(0)
}

// FromAtomicUnits is the inverse of ToAtomicUnits.
func FromAtomicUnits(units string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(units)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", units, ErrInvalidRequirements)
	}
	return d.Shift(-USDCDecimals), nil
}

// Settings are the facilitator side parameters shared by every requirement.
type Settings struct {
	Network string
	// Asset overrides the USDC contract looked up for Network.
	Asset             string
	MaxTimeoutSeconds int
}

// Quote is what a single checkout asks the payer for.
type Quote struct {
	PayTo       string
	Price       decimal.Decimal
	Resource    string
	Description string
	MimeType    string
}

// BuildRequirements produces the exact-scheme requirements for a quote.
func BuildRequirements(settings Settings, quote Quote) (*PaymentRequirements, error) {
	if !quote.Price.IsPositive() {
		return nil, fmt.Errorf("price %s must be positive: %w", quote.Price, ErrInvalidRequirements)
	}
	if !common.IsHexAddress(quote.PayTo) {
		return nil, fmt.Errorf("payTo %q is not an address: %w", quote.PayTo, ErrInvalidRequirements)
	}

	asset := settings.Asset
	if asset == "" {
		var ok bool
		if asset, ok = USDCAsset(settings.Network); !ok {
			return nil, fmt.Errorf("no USDC asset known for network %q: %w", settings.Network, ErrInvalidRequirements)
		}
	}

	timeout := settings.MaxTimeoutSeconds
	if timeout <= 0 {
		timeout = 300
	}
	mimeType := quote.MimeType
	if mimeType == "" {
		mimeType = "application/json"
	}

	return &PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           settings.Network,
		MaxAmountRequired: ToAtomicUnits(quote.Price),
		Resource:          quote.Resource,
		Description:       quote.Description,
		MimeType:          mimeType,
		PayTo:             common.HexToAddress(quote.PayTo).Hex(),
		MaxTimeoutSeconds: timeout,
		Asset:             common.HexToAddress(asset).Hex(),
		Extra: map[string]string{
			"name":    "USDC",
			"version": "2",
		},
	}, nil
}
