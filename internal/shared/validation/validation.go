package validation

import (
	"regexp"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	slotIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)
	registerOnce  sync.Once
)

// Register adds the custom tags used by request DTOs to gin's validator:
//
//	evm_address     0x-prefixed 20 byte hex address
//	decimal_amount  non-negative decimal string
//	slot_id         URL safe slot identifier
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("evm_address", isEVMAddress)
		_ = v.RegisterValidation("decimal_amount", isDecimalAmount)
		_ = v.RegisterValidation("slot_id", isSlotID)
	})
}

func isEVMAddress(fl validator.FieldLevel) bool {
	return IsEVMAddress(fl.Field().String())
}

func isDecimalAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}

func isSlotID(fl validator.FieldLevel) bool {
	return slotIDPattern.MatchString(fl.Field().String())
}

// IsEVMAddress reports whether s is a hex encoded EVM account address.
func IsEVMAddress(s string) bool {
	return common.IsHexAddress(s) && len(s) == 42
}

// ChecksumAddress returns the EIP-55 form of a hex address.
func ChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}
