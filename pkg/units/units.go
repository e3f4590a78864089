// Package units converts between token smallest units and decimal amounts
// without going through floating point.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more decimals than the token supports")
)

// Parse converts a decimal string such as "1.25" to smallest units. The
// conversion is exact: input with more fractional digits than decimals is
// rejected rather than rounded.
func Parse(amount string, decimals int32) (*big.Int, error) {
	d, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %s (max %d)", ErrTooPrecise, amount, decimals)
	}
	return shifted.BigInt(), nil
}

// ParseDecimal parses a user-entered decimal amount
func ParseDecimal(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return d, nil
}

// ToDecimal scales a smallest-unit integer to its decimal value
func ToDecimal(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// FromDecimal scales a decimal value to smallest units, truncating any
// digits beyond the token's precision
func FromDecimal(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).Truncate(0).BigInt()
}

// Format renders smallest units for display with full precision. Trailing
// zeros are trimmed but at least one fractional digit is kept ("1.0").
func Format(v *big.Int, decimals int32) string {
	s := ToDecimal(v, decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
