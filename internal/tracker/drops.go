package tracker

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

// CheckStatus is the outcome of a day-over-day comparison for one product.
type CheckStatus int

const (
	// StatusInsufficientData means today or yesterday has no entry, or one of
	// the two prices is unavailable. It is not the same as "no change".
	StatusInsufficientData CheckStatus = iota
	// StatusNoDrop means both prices exist and today's is not lower.
	StatusNoDrop
	// StatusDrop means today's price is lower than yesterday's.
	StatusDrop
)

func (s CheckStatus) String() string {
	switch s {
	case StatusDrop:
		return "drop"
	case StatusNoDrop:
		return "no-drop"
	default:
		return "insufficient-data"
	}
}

// Check is the day-over-day comparison for one product.
type Check struct {
	Title     string
	Status    CheckStatus
	Yesterday string
	Today     string
	// Delta, Previous and Current are set only when both prices are numeric.
	Delta    decimal.Decimal
	Previous decimal.Decimal
	Current  decimal.Decimal
	Currency model.Currency
}

// DropReport names a product whose price fell since yesterday. Delta is negative.
type DropReport struct {
	Title    string
	Date     string
	Delta    decimal.Decimal
	Previous decimal.Decimal
	Current  decimal.Decimal
	Currency model.Currency
}

// Scan compares today's and yesterday's price for every product, in title
// order. It reads h lazily and never modifies it.
func Scan(h model.History, today time.Time) iter.Seq[Check] {
	todayKey := model.DateKey(today)
	yesterdayKey := model.Yesterday(today)

	return func(yield func(Check) bool) {
		for _, title := range h.Titles() {
			if !yield(compare(title, h[title], yesterdayKey, todayKey)) {
				return
			}
		}
	}
}

// Drops yields only the products whose price dropped.
func Drops(h model.History, today time.Time) iter.Seq[DropReport] {
	return func(yield func(DropReport) bool) {
		for c := range Scan(h, today) {
			if c.Status != StatusDrop {
				continue
			}
			if !yield(c.Report()) {
				return
			}
		}
	}
}

// Report converts a drop check into a DropReport.
func (c Check) Report() DropReport {
	return DropReport{
		Title:    c.Title,
		Date:     c.Today,
		Delta:    c.Delta,
		Previous: c.Previous,
		Current:  c.Current,
		Currency: c.Currency,
	}
}

func compare(title string, s model.Series, yesterdayKey, todayKey string) Check {
	c := Check{Title: title, Yesterday: yesterdayKey, Today: todayKey, Status: StatusInsufficientData}

	prevEntry, ok := s[yesterdayKey]
	if !ok {
		return c
	}
	curEntry, ok := s[todayKey]
	if !ok {
		return c
	}
	prev, ok := prevEntry.Price.Amount()
	if !ok {
		return c
	}
	cur, ok := curEntry.Price.Amount()
	if !ok {
		return c
	}

	c.Previous = prev
	c.Current = cur
	c.Delta = cur.Sub(prev)
	c.Currency = curEntry.Currency
	if c.Delta.IsNegative() {
		c.Status = StatusDrop
	} else {
		c.Status = StatusNoDrop
	}
	return c
}
