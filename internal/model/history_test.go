package model

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestDateKeys(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := DateKey(day); got != "2024-03-01" {
		t.Errorf("DateKey = %s", got)
	}
	if got := Yesterday(day); got != "2024-02-29" {
		t.Errorf("Yesterday = %s, want 2024-02-29", got)
	}
	if got := Yesterday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2023-12-31" {
		t.Errorf("Yesterday across year = %s", got)
	}

	legacy, err := ParseDateKey("02 January, 2024")
	if err != nil {
		t.Fatalf("parse legacy: %v", err)
	}
	if DateKey(legacy) != "2024-01-02" {
		t.Errorf("legacy key parsed as %s", DateKey(legacy))
	}
	if _, err := ParseDateKey("yesterday"); !errors.Is(err, ErrBadDateKey) {
		t.Errorf("expected ErrBadDateKey, got %v", err)
	}
}

func TestHistorySetOverwrites(t *testing.T) {
	h := NewHistory()
	h.Set("Phone A", "2024-01-01", Entry{Price: PriceFromFloat(999), Currency: "USD"})
	h.Set("Phone A", "2024-01-01", Entry{Price: PriceFromFloat(949), Currency: "USD"})

	if len(h) != 1 || len(h["Phone A"]) != 1 {
		t.Fatalf("expected a single entry, got %v", h)
	}
	e, ok := h.Lookup("Phone A", "2024-01-01")
	if !ok || !e.Price.Equal(PriceFromFloat(949)) {
		t.Errorf("expected last write to win, got %+v", e)
	}
	if _, ok := h.Lookup("Phone B", "2024-01-01"); ok {
		t.Error("unexpected entry for unknown title")
	}
}

func TestHistoryOrdering(t *testing.T) {
	h := History{
		"b": {"2024-01-03": {}, "2024-01-01": {}},
		"a": {"2024-01-02": {}},
	}
	if got := h.Titles(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Titles = %v", got)
	}
	if got := h["b"].Dates(); !reflect.DeepEqual(got, []string{"2024-01-01", "2024-01-03"}) {
		t.Errorf("Dates = %v", got)
	}
	if date, _, ok := h["b"].Latest(); !ok || date != "2024-01-03" {
		t.Errorf("Latest = %s, %v", date, ok)
	}
}

func TestHistoryCloneIsDeep(t *testing.T) {
	h := History{"a": {"2024-01-01": {Price: PriceFromFloat(1), Currency: "USD"}}}
	c := h.Clone()
	c.Set("a", "2024-01-02", Entry{Price: PriceFromFloat(2), Currency: "USD"})

	if len(h["a"]) != 1 {
		t.Error("mutating the clone changed the original")
	}
	if h.Equal(c) {
		t.Error("histories with different entries compared equal")
	}
	c = h.Clone()
	if !h.Equal(c) {
		t.Error("clone must equal original")
	}
}
