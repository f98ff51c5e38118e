package collector

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

// NormalizePrice converts a raw decoded JSON value into a Price. Numbers
// become amounts; numeric strings are parsed; error text, negatives, NaN and
// anything else become model.PriceUnavailable.
func NormalizePrice(raw any) model.Price {
	switch v := raw.(type) {
	case json.Number:
		return model.ParsePrice(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return model.PriceUnavailable
		}
		return model.NewPrice(decimal.NewFromFloat(v))
	case int:
		if v < 0 {
			return model.PriceUnavailable
		}
		return model.NewPrice(decimal.NewFromInt(int64(v)))
	case string:
		return model.ParsePrice(v)
	default:
		return model.PriceUnavailable
	}
}

// NormalizeCurrency converts a raw decoded JSON value into a Currency.
func NormalizeCurrency(raw any) model.Currency {
	s, ok := raw.(string)
	if !ok {
		return model.CurrencyUnavailable
	}
	return model.ParseCurrency(s)
}
