package main

import (
	"errors"
	"path/filepath"
	"testing"

	"PriceSentinel/internal/config"
	"PriceSentinel/internal/history"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/tracker"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Oxylabs.Username = "u"
	cfg.Oxylabs.Password = "p"
	cfg.Tracking.URLs = []string{"https://shop.example/p/1"}
	cfg.Tracking.FailurePolicy = "skip"
	cfg.Tracking.Concurrency = 3
	return cfg
}

func TestNewScheduler(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "data.json"))

	sched, err := newScheduler(testConfig(), store, recorder.NewNoopRecorder())
	if err != nil {
		t.Fatalf("newScheduler() error = %v", err)
	}
	if sched.Options.Policy != tracker.PolicySkip || sched.Options.Concurrency != 3 {
		t.Errorf("options = %+v", sched.Options)
	}
	if sched.DetectDrops {
		t.Error("DetectDrops should follow the config")
	}
	if sched.Fetcher.Name() != "oxylabs" {
		t.Errorf("fetcher = %s, want oxylabs", sched.Fetcher.Name())
	}
}

func TestNewScheduler_BadPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Tracking.FailurePolicy = "retry"
	store := history.NewFileStore(filepath.Join(t.TempDir(), "data.json"))

	sched, err := newScheduler(cfg, store, recorder.NewNoopRecorder())
	if !errors.Is(err, tracker.ErrUnknownPolicy) {
		t.Fatalf("newScheduler() error = %v, want ErrUnknownPolicy", err)
	}
	if sched != nil {
		t.Error("no scheduler should be built for a bad policy")
	}
}
