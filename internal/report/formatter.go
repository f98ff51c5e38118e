package report

import (
	"fmt"
	"strings"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/tracker"
)

// averagePeriod is the number of recent prices averaged in the summary.
const averagePeriod = 7

// FormatDrop formats a single drop as one log line.
func FormatDrop(d tracker.DropReport) string {
	return fmt.Sprintf("price for %q dropped by %s %s on %s (%s -> %s)",
		d.Title, d.Delta.Neg().String(), currencyLabel(d.Currency), d.Date,
		d.Previous.String(), d.Current.String())
}

// FormatCheck formats a non-drop comparison result.
func FormatCheck(c tracker.Check) string {
	switch c.Status {
	case tracker.StatusDrop:
		return fmt.Sprintf("price for %q dropped by %s", c.Title, c.Delta.Neg().String())
	case tracker.StatusNoDrop:
		return fmt.Sprintf("no price drop for %q (%s -> %s)", c.Title, c.Previous.String(), c.Current.String())
	default:
		return fmt.Sprintf("not enough data to check price drop for %q (need %s and %s)", c.Title, c.Yesterday, c.Today)
	}
}

// FormatCycle formats the end-of-cycle summary.
func FormatCycle(date string, tracked, observed, skipped, drops int) string {
	return fmt.Sprintf("tracking cycle %s: %d tracked, %d observed, %d skipped, %d drops",
		date, tracked, observed, skipped, drops)
}

// FormatSummary renders one block per product: date range, latest entry,
// and statistics over the available prices.
func FormatSummary(h model.History) string {
	if len(h) == 0 {
		return "no price history yet\n"
	}

	var b strings.Builder
	for _, title := range h.Titles() {
		s := h[title]
		dates := s.Dates()
		b.WriteString(fmt.Sprintf("%s\n", title))
		if len(dates) == 0 {
			b.WriteString("  no entries\n")
			continue
		}
		b.WriteString(fmt.Sprintf("  days: %d (%s .. %s)\n", len(dates), dates[0], dates[len(dates)-1]))

		lastDate, last, _ := s.Latest()
		b.WriteString(fmt.Sprintf("  latest: %s %s on %s\n", last.Price.String(), currencyLabel(last.Currency), lastDate))

		prices := calculator.SeriesPrices(s)
		high, low, err := calculator.Range(prices, 0)
		if err != nil {
			b.WriteString("  range: no prices available\n")
			continue
		}
		b.WriteString(fmt.Sprintf("  range: %s .. %s\n", low.String(), high.String()))

		period := min(len(prices), averagePeriod)
		if avg, err := calculator.SMA(prices, period); err == nil {
			b.WriteString(fmt.Sprintf("  average of last %d: %s\n", period, avg.StringFixed(2)))
		}
		if pos, err := calculator.Position(prices[len(prices)-1], high, low); err == nil {
			b.WriteString(fmt.Sprintf("  last price position in range: %.0f%%\n", pos*100))
		}
	}
	return b.String()
}

func currencyLabel(c model.Currency) string {
	if !c.Available() {
		return "(currency unavailable)"
	}
	return string(c)
}
