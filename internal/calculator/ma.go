// Package calculator computes summary statistics over a product's price
// series. Unavailable prices never take part.
package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

// SeriesPrices returns the available prices of s in date order.
func SeriesPrices(s model.Series) []decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(s))
	for _, date := range s.Dates() {
		if amount, ok := s[date].Price.Amount(); ok {
			prices = append(prices, amount)
		}
	}
	return prices
}

// SMA computes the simple moving average of the last period prices.
func SMA(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(prices) < period {
		return decimal.Zero, errors.New("not enough data for SMA calculation")
	}
	sum := decimal.Zero
	for _, p := range prices[len(prices)-period:] {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}
