package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Range returns the high and low of the last window prices. A window of zero
// or less scans every price.
func Range(prices []decimal.Decimal, window int) (high, low decimal.Decimal, err error) {
	if len(prices) == 0 {
		return decimal.Zero, decimal.Zero, errors.New("no prices provided")
	}
	start := 0
	if window > 0 && len(prices) > window {
		start = len(prices) - window
	}
	high, low = prices[start], prices[start]
	for _, p := range prices[start+1:] {
		high = decimal.Max(high, p)
		low = decimal.Min(low, p)
	}
	return high, low, nil
}

// Position returns where current sits within the range (0.0~1.0).
func Position(current, high, low decimal.Decimal) (float64, error) {
	if high.Equal(low) {
		return 0.5, nil
	}
	if high.LessThan(low) {
		return 0, errors.New("high must be >= low")
	}
	pos := current.Sub(low).Div(high.Sub(low)).InexactFloat64()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
