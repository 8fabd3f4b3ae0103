package chain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the fixed scale of the native currency.
const Decimals = 18

// ToWei converts a decimal amount to its smallest-unit integer. Digits beyond
// 18 decimal places are truncated.
func ToWei(amount decimal.Decimal) (*uint256.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", amount)
	}
	wei, overflow := uint256.FromBig(amount.Shift(Decimals).BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %s overflows 256 bits", amount)
	}
	return wei, nil
}

// FromWei parses a hex quantity ("0x...") of smallest units into a decimal amount.
func FromWei(quantity string) (decimal.Decimal, error) {
	wei, err := ParseQuantity(quantity)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(wei.ToBig(), -Decimals), nil
}

// ParseQuantity parses a hex quantity, tolerating leading zeros.
func ParseQuantity(quantity string) (*uint256.Int, error) {
	s := strings.TrimSpace(quantity)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("quantity %q lacks 0x prefix", quantity)
	}
	digits := strings.TrimLeft(s[2:], "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromHex("0x" + digits)
	if err != nil {
		return nil, fmt.Errorf("parse quantity %q: %w", quantity, err)
	}
	return v, nil
}

// ToHexQuantity renders v as a minimal hex quantity.
func ToHexQuantity(v *uint256.Int) string {
	if v == nil {
		return "0x0"
	}
	return v.Hex()
}

// Quantity renders a small integer (gas, chain id) as a hex quantity.
func Quantity(n uint64) string {
	return uint256.NewInt(n).Hex()
}
