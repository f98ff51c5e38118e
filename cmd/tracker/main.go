package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceSentinel/internal/api"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/export"
	"PriceSentinel/internal/history"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/report"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/tracker"
)

type options struct {
	configPath string
	daemon     bool
	noTrack    bool
	summary    bool
	exportXLSX string
	exportCSV  string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	opts := options{configPath: "configs/config.yaml"}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		opts.configPath = v
	}
	flag.StringVar(&opts.configPath, "config", opts.configPath, "path to the YAML config file")
	flag.BoolVar(&opts.daemon, "daemon", false, "run the tracking cycle on schedule.daily_cron until interrupted")
	flag.BoolVar(&opts.noTrack, "no-track", false, "skip fetching; only read the saved history")
	flag.BoolVar(&opts.summary, "summary", false, "print a per-product summary of the history")
	flag.StringVar(&opts.exportXLSX, "export-xlsx", "", "write the history table and line chart to this .xlsx file")
	flag.StringVar(&opts.exportCSV, "export-csv", "", "write the history as CSV to this file")
	flag.Parse()

	if opts.daemon && opts.noTrack {
		log.Fatalf("[FATAL] -daemon and -no-track cannot be combined")
	}

	log.Println("[INFO] PriceSentinel starting...")
	if err := run(opts); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.noTrack {
		err = cfg.ValidateStorage()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Printf("[INFO] history: %s", store.Location())

	rec := openRecorder(cfg)
	defer rec.Close()

	if opts.noTrack {
		h, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load history from %s: %w", store.Location(), err)
		}
		return writeOutputs(opts, h)
	}

	sched, err := newScheduler(cfg, store, rec)
	if err != nil {
		return err
	}

	if opts.daemon {
		return runDaemon(ctx, cfg, sched, store, rec)
	}

	res, err := sched.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("tracking cycle: %w", err)
	}
	return writeOutputs(opts, res.History)
}

// newScheduler wires the Oxylabs fetcher and the tracking options from cfg.
func newScheduler(cfg *config.Config, store history.Store, rec recorder.Recorder) (*scheduler.Scheduler, error) {
	policy, err := tracker.ParsePolicy(cfg.Tracking.FailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("tracking.failure_policy: %w", err)
	}
	fetcher := collector.NewOxylabsFetcher(collector.OxylabsConfig{
		BaseURL:           cfg.Oxylabs.BaseURL,
		Username:          cfg.Oxylabs.Username,
		Password:          cfg.Oxylabs.Password,
		Source:            cfg.Oxylabs.Source,
		GeoLocation:       cfg.Oxylabs.GeoLocation,
		RequestsPerSecond: cfg.Oxylabs.RequestsPerSecond,
		Timeout:           cfg.Oxylabs.Timeout,
		Proxy:             cfg.Proxy,
	})
	log.Printf("[INFO] data source: %s, %d tracked urls, failure policy %s", fetcher.Name(), len(cfg.Tracking.URLs), policy)

	sched := scheduler.NewScheduler(store, fetcher, rec, cfg.Tracking.URLs, tracker.MergeOptions{
		Policy:      policy,
		Concurrency: cfg.Tracking.Concurrency,
	})
	sched.DetectDrops = cfg.Tracking.DetectDrops
	return sched, nil
}

func runDaemon(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, store history.Store, rec recorder.Recorder) error {
	// Scheduled cycles are not bound to the signal context, so a cycle in
	// progress at shutdown still saves its history.
	if err := sched.Register(context.Background(), cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing tracking cycle now")
		go func() {
			_, err := sched.RunOnce(context.Background())
			switch {
			case errors.Is(err, scheduler.ErrStopped):
				log.Println("[INFO] startup tracking cycle skipped, scheduler stopped")
			case err != nil:
				log.Printf("[ERROR] tracking cycle: %v", err)
			}
		}()
	}

	var srv *http.Server
	if cfg.API.Listen != "" {
		srv = &http.Server{
			Addr:              cfg.API.Listen,
			Handler:           api.SetupRouter(api.NewHandler(store, rec)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[INFO] API listening on %s", cfg.API.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] API server: %v", err)
			}
		}()
	}

	log.Printf("[INFO] PriceSentinel is running (cron %q). Press Ctrl+C to stop.", cfg.Schedule.DailyCron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] API shutdown: %v", err)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.History.Backend == "s3" {
		s3cfg := cfg.History.S3
		store, err := history.NewS3Store(ctx, history.S3Config{
			Endpoint:       s3cfg.Endpoint,
			Region:         s3cfg.Region,
			Bucket:         s3cfg.Bucket,
			Key:            s3cfg.Key,
			AccessKey:      s3cfg.AccessKey,
			SecretKey:      s3cfg.SecretKey,
			ForcePathStyle: s3cfg.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 history store: %w", err)
		}
		return store, nil
	}
	return history.NewFileStore(cfg.History.Path), nil
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func writeOutputs(opts options, h model.History) error {
	if opts.summary {
		fmt.Print(report.FormatSummary(h))
	}
	if opts.exportXLSX != "" {
		if err := export.WriteXLSX(opts.exportXLSX, h); err != nil {
			return err
		}
		log.Printf("[INFO] wrote chart workbook %s", opts.exportXLSX)
	}
	if opts.exportCSV != "" {
		if err := export.WriteCSV(opts.exportCSV, h); err != nil {
			return err
		}
		log.Printf("[INFO] wrote csv %s", opts.exportCSV)
	}
	return nil
}
