package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MinorUnits converts a major-unit price to the smallest unit of cur, rounding
// half away from zero: 19.995 USD becomes 2000.
func MinorUnits(price decimal.Decimal, cur currency.Unit) (int64, error) {
	if price.IsNegative() {
		return 0, fmt.Errorf("negative price %s", price)
	}
	scale, _ := currency.Standard.Rounding(cur)
	minor := price.Shift(int32(scale)).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("price %s out of range", price)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of MinorUnits, used for display.
func FromMinorUnits(amount int64, cur currency.Unit) decimal.Decimal {
	scale, _ := currency.Standard.Rounding(cur)
	return decimal.New(amount, -int32(scale))
}
