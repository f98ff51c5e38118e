package model

import (
	"encoding/json"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in        string
		available bool
		want      string
	}{
		{"949", true, "949"},
		{"949.99", true, "949.99"},
		{"$1,299.00", true, "1299"},
		{"  12.5 ", true, "12.5"},
		{"Price not available", false, "unavailable"},
		{"Error: selector not found", false, "unavailable"},
		{"-5", false, "unavailable"},
		{"", false, "unavailable"},
	}
	for _, tt := range tests {
		p := ParsePrice(tt.in)
		if p.Available() != tt.available {
			t.Errorf("ParsePrice(%q).Available() = %v, want %v", tt.in, p.Available(), tt.available)
		}
		if p.String() != tt.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", tt.in, p, tt.want)
		}
	}
}

func TestPriceJSON(t *testing.T) {
	data, err := json.Marshal(PriceFromFloat(949.5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "949.5" {
		t.Errorf("expected bare number, got %s", data)
	}

	data, err = json.Marshal(PriceUnavailable)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"unavailable"` {
		t.Errorf("expected marker, got %s", data)
	}

	for _, in := range []string{`"unavailable"`, `"Price not available"`, `null`} {
		var p Price
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if p.Available() {
			t.Errorf("%s decoded as available price %s", in, p)
		}
	}

	var p Price
	if err := json.Unmarshal([]byte(`{"nested": 1}`), &p); err == nil {
		t.Error("expected error for object price")
	}
}

func TestPriceAmountSentinel(t *testing.T) {
	if _, ok := PriceUnavailable.Amount(); ok {
		t.Error("sentinel must not report an amount")
	}
	if !PriceUnavailable.Equal(Price{}) {
		t.Error("zero price must equal the sentinel")
	}
	if PriceUnavailable.Equal(PriceFromFloat(0)) {
		t.Error("sentinel must differ from a zero amount")
	}
}

func TestParseCurrency(t *testing.T) {
	tests := map[string]Currency{
		"USD":                   "USD",
		" eur ":                 "EUR",
		"Currency not available": CurrencyUnavailable,
		"Error":                 CurrencyUnavailable,
		"error: missing":        CurrencyUnavailable,
		"unavailable":           CurrencyUnavailable,
		"":                      CurrencyUnavailable,
		"   ":                   CurrencyUnavailable,
		"$":                     "$",
		" US$ ":                 "US$",
		"€":                     "€",
		"US1":                   "US1",
	}
	for in, want := range tests {
		if got := ParseCurrency(in); got != want {
			t.Errorf("ParseCurrency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCurrencyJSON(t *testing.T) {
	data, err := json.Marshal(Currency(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"unavailable"` {
		t.Errorf("empty currency marshalled as %s", data)
	}
	var c Currency
	if err := json.Unmarshal([]byte(`"Currency not available"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c != CurrencyUnavailable {
		t.Errorf("legacy marker decoded as %q", c)
	}
}
