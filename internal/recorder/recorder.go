package recorder

import (
	"time"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

// Run status values stored in the runs table.
const (
	RunOK     = "OK"
	RunFailed = "FAILED"
)

// Run summarises one tracking cycle.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Date       string
	Fetcher    string
	Tracked    int
	Observed   int
	Skipped    int
	Drops      int
	Status     string // RunOK or RunFailed
	Error      string
}

// ObservationRecord is one merged observation.
type ObservationRecord struct {
	RunID    string
	Date     string
	URL      string
	Title    string
	Price    model.Price
	Currency model.Currency
}

// DropEvent is one detected day-over-day price drop.
type DropEvent struct {
	RunID    string
	Date     string
	Title    string
	Previous decimal.Decimal
	Current  decimal.Decimal
	Delta    decimal.Decimal
	Currency model.Currency
}

// Recorder keeps an append-only audit trail of tracking cycles next to the
// history file, for analysis. It is not the source of truth for the history.
type Recorder interface {
	RecordRun(run *Run) error
	RecordObservation(obs *ObservationRecord) error
	RecordDrop(evt *DropEvent) error
	RecentRuns(limit int) ([]Run, error)
	Close() error
}
