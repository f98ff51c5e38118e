package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the tracking audit trail to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the read-only API query while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			date        TEXT NOT NULL,
			fetcher     TEXT,
			tracked     INTEGER,
			observed    INTEGER,
			skipped     INTEGER,
			drops       INTEGER,
			status      TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS observations (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			date      TEXT NOT NULL,
			url       TEXT,
			title     TEXT NOT NULL,
			price     TEXT,
			currency  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_title_date ON observations(title, date)`,

		`CREATE TABLE IF NOT EXISTS price_drops (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			date      TEXT NOT NULL,
			title     TEXT NOT NULL,
			previous_price TEXT,
			current_price  TEXT,
			delta     TEXT,
			currency  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_drops_date ON price_drops(date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO runs
		(id, started_at, finished_at, date, fetcher, tracked, observed, skipped, drops, status, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Date, run.Fetcher,
		run.Tracked, run.Observed, run.Skipped, run.Drops, run.Status, run.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordObservation(obs *ObservationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Unavailable prices are stored as NULL so SQL aggregates skip them.
	var price sql.NullString
	if amount, ok := obs.Price.Amount(); ok {
		price = sql.NullString{String: amount.String(), Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO observations
		(run_id, timestamp, date, url, title, price, currency)
		VALUES (?,?,?,?,?,?,?)`,
		obs.RunID, time.Now().Unix(), obs.Date, obs.URL, obs.Title, price, string(obs.Currency),
	)
	return err
}

func (r *SQLiteRecorder) RecordDrop(evt *DropEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO price_drops
		(run_id, timestamp, date, title, previous_price, current_price, delta, currency)
		VALUES (?,?,?,?,?,?,?,?)`,
		evt.RunID, time.Now().Unix(), evt.Date, evt.Title,
		evt.Previous.String(), evt.Current.String(), evt.Delta.String(), string(evt.Currency),
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, started_at, finished_at, date, fetcher,
		tracked, observed, skipped, drops, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run             Run
			started, finish int64
			fetcher, errMsg sql.NullString
		)
		if err := rows.Scan(&run.ID, &started, &finish, &run.Date, &fetcher,
			&run.Tracked, &run.Observed, &run.Skipped, &run.Drops, &run.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finish, 0)
		run.Fetcher = fetcher.String
		run.Error = errMsg.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
