package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"PriceSentinel/internal/model"
)

// HistoryToCSV renders h as one row per (title, date), titles and dates in
// sorted order. Unavailable prices and currencies are written as empty cells.
func HistoryToCSV(h model.History) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"title", "date", "price", "currency"}); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, title := range h.Titles() {
		series := h[title]
		for _, date := range series.Dates() {
			e := series[date]
			price := ""
			if amount, ok := e.Price.Amount(); ok {
				price = amount.String()
			}
			currency := ""
			if e.Currency.Available() {
				currency = string(e.Currency)
			}
			if err := w.Write([]string{title, date, price, currency}); err != nil {
				return nil, fmt.Errorf("writing CSV row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the CSV projection of h to path.
func WriteCSV(path string, h model.History) error {
	data, err := HistoryToCSV(h)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}
