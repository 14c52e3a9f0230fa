package payment

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitExp is the exponent of the minor currency unit (kobo, cents).
const MinorUnitExp = 2

var (
	minorUnitFactor = decimal.New(1, MinorUnitExp)
	maxMinor        = decimal.NewFromInt(math.MaxInt64)
)

// ToMinor converts a major-unit amount into minor units. It refuses amounts
// that are not positive or that carry a fraction smaller than one minor unit.
func ToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(minorUnitFactor)
	if !minor.IsInteger() || minor.GreaterThan(maxMinor) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FromMinor converts a gateway-reported minor amount into major units.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitExp)
}
