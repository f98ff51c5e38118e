// Package export projects the price history into files for charting. It only
// reads the history.
package export

import (
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"PriceSentinel/internal/model"
)

// Sheet is the worksheet holding the price table and its chart.
const Sheet = "Sheet1"

// BuildWorkbook lays out h as a table with one row per date (the union of all
// products' dates) and one column per product, and adds a line chart with one
// series per product. Missing days and unavailable prices are left blank so
// the chart shows gaps. An empty history yields a workbook with only the
// header row and no chart.
func BuildWorkbook(h model.History) (*excelize.File, error) {
	f := excelize.NewFile()

	titles := h.Titles()
	dates := allDates(h)

	if err := f.SetCellValue(Sheet, "A1", "Date"); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for col, title := range titles {
		cell, err := excelize.CoordinatesToCellName(col+2, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(Sheet, cell, title); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header %q: %w", title, err)
		}
	}

	for row, date := range dates {
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		if err := f.SetCellValue(Sheet, cell, date); err != nil {
			f.Close()
			return nil, fmt.Errorf("write date %s: %w", date, err)
		}
		for col, title := range titles {
			e, ok := h.Lookup(title, date)
			if !ok {
				continue
			}
			amount, ok := e.Price.Amount()
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, row+2)
			if err := f.SetCellValue(Sheet, cell, amount.InexactFloat64()); err != nil {
				f.Close()
				return nil, fmt.Errorf("write price %s/%s: %w", title, date, err)
			}
		}
	}

	if len(titles) == 0 || len(dates) == 0 {
		return f, nil
	}

	if err := f.SetColWidth(Sheet, "A", "A", 12); err != nil {
		f.Close()
		return nil, err
	}

	lastRow := len(dates) + 1
	series := make([]excelize.ChartSeries, 0, len(titles))
	for col := range titles {
		name, _ := excelize.ColumnNumberToName(col + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", Sheet, name),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", Sheet, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", Sheet, name, name, lastRow),
		})
	}

	anchor, _ := excelize.CoordinatesToCellName(len(titles)+3, 2)
	if err := f.AddChart(Sheet, anchor, &excelize.Chart{
		Type:         excelize.Line,
		Series:       series,
		ShowBlanksAs: "gap",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("add chart: %w", err)
	}
	return f, nil
}

// WriteXLSX renders h with BuildWorkbook and saves it to path.
func WriteXLSX(path string, h model.History) error {
	f, err := BuildWorkbook(h)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func allDates(h model.History) []string {
	seen := make(map[string]struct{})
	for _, series := range h {
		for date := range series {
			seen[date] = struct{}{}
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates
}
