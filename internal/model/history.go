package model

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// DateLayout is the layout of history date keys. Keys sort chronologically
// as plain strings.
const DateLayout = "2006-01-02"

// legacyDateLayout is the key layout written by earlier versions of the tracker.
const legacyDateLayout = "02 January, 2006"

// DateKey formats the calendar date of t as a history key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses an ISO key, falling back to the legacy layout.
func ParseDateKey(key string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, key); err == nil {
		return t, nil
	}
	t, err := time.Parse(legacyDateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, ErrBadDateKey)
	}
	return t, nil
}

// Yesterday returns the key of the calendar day before the day of t.
func Yesterday(t time.Time) string {
	y, m, d := t.Date()
	return DateKey(time.Date(y, m, d-1, 12, 0, 0, 0, t.Location()))
}

// Entry is one day's price for one product.
type Entry struct {
	Price    Price    `json:"price"`
	Currency Currency `json:"currency"`
}

// Equal compares price by value and treats both unavailable currency forms alike.
func (e Entry) Equal(o Entry) bool {
	if !e.Price.Equal(o.Price) {
		return false
	}
	if !e.Currency.Available() || !o.Currency.Available() {
		return e.Currency.Available() == o.Currency.Available()
	}
	return e.Currency == o.Currency
}

// Series maps a date key to the entry recorded on that day. Days may be missing.
type Series map[string]Entry

// Dates returns the date keys in chronological order.
func (s Series) Dates() []string {
	return slices.Sorted(maps.Keys(s))
}

// Latest returns the most recent entry and its date.
func (s Series) Latest() (date string, e Entry, ok bool) {
	if len(s) == 0 {
		return "", Entry{}, false
	}
	dates := s.Dates()
	date = dates[len(dates)-1]
	return date, s[date], true
}

// History maps a product title to its price series.
type History map[string]Series

// NewHistory returns an empty history.
func NewHistory() History {
	return make(History)
}

// Set records e for title on date, replacing any previous entry for that day.
func (h History) Set(title, date string, e Entry) {
	s, ok := h[title]
	if !ok {
		s = make(Series)
		h[title] = s
	}
	s[date] = e
}

// Lookup returns the entry for title on date.
func (h History) Lookup(title, date string) (Entry, bool) {
	s, ok := h[title]
	if !ok {
		return Entry{}, false
	}
	e, ok := s[date]
	return e, ok
}

// Titles returns product titles in sorted order.
func (h History) Titles() []string {
	return slices.Sorted(maps.Keys(h))
}

// Clone returns a deep copy.
func (h History) Clone() History {
	out := make(History, len(h))
	for title, s := range h {
		out[title] = maps.Clone(s)
		if out[title] == nil {
			out[title] = make(Series)
		}
	}
	return out
}

// Equal reports whether both histories hold the same entries.
func (h History) Equal(o History) bool {
	if len(h) != len(o) {
		return false
	}
	for title, s := range h {
		os, ok := o[title]
		if !ok || len(s) != len(os) {
			return false
		}
		for date, e := range s {
			oe, ok := os[date]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
	}
	return true
}
