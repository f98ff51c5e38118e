package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// unavailableMarker is how both sentinels are written to the history file.
const unavailableMarker = "unavailable"

// Price is either a decimal amount or the unavailable sentinel.
// The zero value is unavailable.
type Price struct {
	amount decimal.Decimal
	valid  bool
}

// PriceUnavailable marks a price the fetcher could not determine.
var PriceUnavailable = Price{}

// NewPrice wraps a known amount.
func NewPrice(amount decimal.Decimal) Price {
	return Price{amount: amount, valid: true}
}

// PriceFromFloat is a convenience for literal prices.
func PriceFromFloat(f float64) Price {
	return NewPrice(decimal.NewFromFloat(f))
}

// ParsePrice parses a textual amount such as "949.99" or "$1,299.00".
// Anything that does not reduce to a non-negative decimal is unavailable.
func ParsePrice(s string) Price {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return PriceUnavailable
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return PriceUnavailable
	}
	return NewPrice(d)
}

// Available reports whether the price holds a numeric amount.
func (p Price) Available() bool { return p.valid }

// Amount returns the amount and whether it is valid. Callers must check ok
// before doing arithmetic.
func (p Price) Amount() (amount decimal.Decimal, ok bool) {
	return p.amount, p.valid
}

// Equal compares two prices by value; two unavailable prices are equal.
func (p Price) Equal(o Price) bool {
	if p.valid != o.valid {
		return false
	}
	if !p.valid {
		return true
	}
	return p.amount.Equal(o.amount)
}

func (p Price) String() string {
	if !p.valid {
		return unavailableMarker
	}
	return p.amount.String()
}

// MarshalJSON writes a JSON number, or the "unavailable" marker.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return json.Marshal(unavailableMarker)
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts a JSON number, null, or a string. Strings are the
// marker or values written by older versions ("Price not available",
// "949.99"); they never fail, they decode to an amount or the sentinel.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = PriceUnavailable
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		*p = ParsePrice(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode price %s: %w", data, err)
	}
	*p = NewPrice(d)
	return nil
}

// Currency is the label the shop reports, usually an ISO 4217 code such as
// "USD" but sometimes a symbol such as "$", or CurrencyUnavailable.
type Currency string

// CurrencyUnavailable marks a currency the fetcher could not determine.
const CurrencyUnavailable Currency = unavailableMarker

const legacyCurrencyMarker = "currency not available"

// ParseCurrency keeps any currency label the parser returned, trimmed.
// Alphabetic three letter codes are upper-cased. Empty values, error text
// and the markers written by older versions are unavailable.
func ParseCurrency(s string) Currency {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case s == "", lower == unavailableMarker, lower == legacyCurrencyMarker, strings.HasPrefix(lower, "error"):
		return CurrencyUnavailable
	case isAlphaCode(s):
		return Currency(strings.ToUpper(s))
	default:
		return Currency(s)
	}
}

func isAlphaCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Available reports whether c holds a currency label.
func (c Currency) Available() bool {
	return c != "" && c != CurrencyUnavailable
}

// UnmarshalJSON normalises markers from older files to CurrencyUnavailable.
func (c *Currency) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = CurrencyUnavailable
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode currency: %w", err)
	}
	*c = ParseCurrency(s)
	return nil
}

// MarshalJSON writes the code, or the marker for an empty or unavailable one.
func (c Currency) MarshalJSON() ([]byte, error) {
	if !c.Available() {
		return json.Marshal(unavailableMarker)
	}
	return json.Marshal(string(c))
}
