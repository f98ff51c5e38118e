package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/history"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/report"
	"PriceSentinel/internal/tracker"
)

// ErrStopped is returned by RunOnce once Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler runs tracking cycles, once on demand or daily on a cron schedule.
type Scheduler struct {
	Cron        *cron.Cron
	Store       history.Store
	Fetcher     collector.Fetcher
	Recorder    recorder.Recorder
	URLs        []string
	Options     tracker.MergeOptions
	DetectDrops bool
	Now         func() time.Time

	// mu serialises cycles started by cron and by RunOnce.
	mu      sync.Mutex
	stopped bool
}

// CycleResult is what one tracking cycle did.
type CycleResult struct {
	RunID        string
	Date         string
	Observed     int
	Skipped      []tracker.FetchFailure
	Drops        []tracker.DropReport
	Insufficient []string
	History      model.History
}

// NewScheduler creates a new Scheduler.
func NewScheduler(store history.Store, fetcher collector.Fetcher, rec recorder.Recorder, urls []string, opts tracker.MergeOptions) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Store:       store,
		Fetcher:     fetcher,
		Recorder:    rec,
		URLs:        urls,
		Options:     opts,
		DetectDrops: true,
		Now:         time.Now,
	}
}

// Register adds the daily tracking task. ctx bounds every scheduled cycle.
func (s *Scheduler) Register(ctx context.Context, dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Printf("[ERROR] scheduled tracking cycle: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish,
// whether cron or RunOnce started it, so the history is saved before the
// process exits. Later RunOnce calls return ErrStopped.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	log.Println("[INFO] scheduler stopped")
}

// RunOnce performs one tracking cycle: load the history, merge today's
// observations, report drops, and save. The history is saved only when the
// merge succeeds; a load or merge error leaves the persisted state untouched.
func (s *Scheduler) RunOnce(ctx context.Context) (*CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}

	now := s.Now()
	run := &recorder.Run{
		ID:        uuid.NewString(),
		StartedAt: now,
		Date:      model.DateKey(now),
		Fetcher:   s.Fetcher.Name(),
		Tracked:   len(s.URLs),
	}
	log.Printf("[INFO] running tracking cycle %s for %s (%d urls)", run.ID, run.Date, len(s.URLs))

	res, err := s.runCycle(ctx, run, now)
	run.FinishedAt = s.Now()
	if err != nil {
		run.Status = recorder.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = recorder.RunOK
		run.Observed = res.Observed
		run.Skipped = len(res.Skipped)
		run.Drops = len(res.Drops)
		log.Printf("[INFO] %s", report.FormatCycle(res.Date, len(s.URLs), res.Observed, len(res.Skipped), len(res.Drops)))
	}
	if recErr := s.Recorder.RecordRun(run); recErr != nil {
		log.Printf("[ERROR] record run: %v", recErr)
	}
	return res, err
}

func (s *Scheduler) runCycle(ctx context.Context, run *recorder.Run, now time.Time) (*CycleResult, error) {
	h, err := s.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history from %s: %w", s.Store.Location(), err)
	}

	merged, err := tracker.MergeToday(ctx, h, s.URLs, s.Fetcher, now, s.Options)
	if err != nil {
		return nil, fmt.Errorf("merge today's prices: %w", err)
	}

	res := &CycleResult{
		RunID:    run.ID,
		Date:     merged.Date,
		Observed: len(merged.Observations),
		Skipped:  merged.Skipped,
		History:  merged.History,
	}

	for _, obs := range merged.Observations {
		if err := s.Recorder.RecordObservation(&recorder.ObservationRecord{
			RunID: run.ID, Date: merged.Date, URL: obs.URL, Title: obs.Title,
			Price: obs.Price, Currency: obs.Currency,
		}); err != nil {
			log.Printf("[ERROR] record observation: %v", err)
		}
	}

	if s.DetectDrops {
		s.checkDrops(res, now)
	}

	if err := s.Store.Save(ctx, merged.History); err != nil {
		return nil, fmt.Errorf("save history to %s: %w", s.Store.Location(), err)
	}
	return res, nil
}

func (s *Scheduler) checkDrops(res *CycleResult, today time.Time) {
	for c := range tracker.Scan(res.History, today) {
		switch c.Status {
		case tracker.StatusDrop:
			d := c.Report()
			res.Drops = append(res.Drops, d)
			log.Printf("[INFO] %s", report.FormatDrop(d))
			if err := s.Recorder.RecordDrop(&recorder.DropEvent{
				RunID: res.RunID, Date: d.Date, Title: d.Title,
				Previous: d.Previous, Current: d.Current, Delta: d.Delta, Currency: d.Currency,
			}); err != nil {
				log.Printf("[ERROR] record drop: %v", err)
			}
		case tracker.StatusInsufficientData:
			res.Insufficient = append(res.Insufficient, c.Title)
			log.Printf("[INFO] %s", report.FormatCheck(c))
		}
	}
}
