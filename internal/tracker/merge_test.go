package tracker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
)

var jan2 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func TestMergeToday_AddsEntriesKeyedByTitle(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "Phone A", model.PriceFromFloat(949), "USD")
	f.Set("u2", "Phone B", model.PriceUnavailable, model.CurrencyUnavailable)

	h := model.History{"Phone A": {"2024-01-01": {Price: model.PriceFromFloat(999), Currency: "USD"}}}
	res, err := MergeToday(context.Background(), h, []string{"u1", "u2"}, f, jan2, MergeOptions{})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Date != "2024-01-02" {
		t.Errorf("date = %s", res.Date)
	}
	if len(res.Observations) != 2 || len(res.Skipped) != 0 {
		t.Errorf("observations=%d skipped=%d", len(res.Observations), len(res.Skipped))
	}
	if len(h["Phone A"]) != 2 {
		t.Errorf("expected existing product to gain today's entry, got %v", h["Phone A"].Dates())
	}
	e, ok := h.Lookup("Phone B", "2024-01-02")
	if !ok {
		t.Fatal("new product not created")
	}
	if e.Price.Available() {
		t.Error("unavailable price must stay the sentinel")
	}
}

func TestMergeToday_Idempotent(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "Phone A", model.PriceFromFloat(949), "USD")
	urls := []string{"u1"}

	once := model.NewHistory()
	if _, err := MergeToday(context.Background(), once, urls, f, jan2, MergeOptions{}); err != nil {
		t.Fatal(err)
	}
	twice := model.NewHistory()
	for i := 0; i < 2; i++ {
		if _, err := MergeToday(context.Background(), twice, urls, f, jan2, MergeOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if !once.Equal(twice) {
		t.Errorf("running twice changed the result: %v vs %v", once, twice)
	}
}

func TestMergeToday_SameTitleLastWriteWins(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		f := collector.NewMockFetcher()
		f.Set("u1", "Phone A", model.PriceFromFloat(999), "USD")
		f.Set("u2", "Phone A", model.PriceFromFloat(899), "USD")

		h := model.NewHistory()
		_, err := MergeToday(context.Background(), h, []string{"u1", "u2"}, f, jan2, MergeOptions{Concurrency: concurrency})
		if err != nil {
			t.Fatal(err)
		}
		if len(h) != 1 {
			t.Fatalf("concurrency %d: expected one product, got %v", concurrency, h.Titles())
		}
		e, _ := h.Lookup("Phone A", "2024-01-02")
		if !e.Price.Equal(model.PriceFromFloat(899)) {
			t.Errorf("concurrency %d: expected later URL to win, got %s", concurrency, e.Price)
		}
	}
}

func TestMergeToday_AbortLeavesHistoryUntouched(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "Phone A", model.PriceFromFloat(949), "USD")
	f.Fail("u2", errors.New("401 unauthorized"))
	f.Set("u3", "Phone C", model.PriceFromFloat(10), "USD")

	h := model.History{"Phone A": {"2024-01-01": {Price: model.PriceFromFloat(999), Currency: "USD"}}}
	before := h.Clone()

	_, err := MergeToday(context.Background(), h, []string{"u1", "u2", "u3"}, f, jan2, MergeOptions{Policy: PolicyAbort})
	if err == nil {
		t.Fatal("expected abort error")
	}
	if !strings.Contains(err.Error(), "u2") {
		t.Errorf("error should name the failing URL: %v", err)
	}
	if !h.Equal(before) {
		t.Errorf("history modified on abort: %v", h)
	}
	for _, c := range f.Calls() {
		if c == "u3" {
			t.Error("sequential abort should not fetch later URLs")
		}
	}
}

func TestMergeToday_SkipIsolatesFailures(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "Phone A", model.PriceFromFloat(949), "USD")
	f.Fail("u2", errors.New("timeout"))
	f.Set("u3", "Phone C", model.PriceFromFloat(10), "USD")

	h := model.NewHistory()
	res, err := MergeToday(context.Background(), h, []string{"u1", "u2", "u3"}, f, jan2, MergeOptions{Policy: PolicySkip, Concurrency: 2})
	if err != nil {
		t.Fatalf("skip policy returned error: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].URL != "u2" {
		t.Errorf("skipped = %+v", res.Skipped)
	}
	if len(h) != 2 {
		t.Errorf("expected two products merged, got %v", h.Titles())
	}
}

func TestMergeToday_EmptyTitleIsFetchError(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "   ", model.PriceFromFloat(1), "USD")

	_, err := MergeToday(context.Background(), model.NewHistory(), []string{"u1"}, f, jan2, MergeOptions{})
	if !errors.Is(err, model.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestMergeToday_Cancelled(t *testing.T) {
	f := collector.NewMockFetcher()
	f.Set("u1", "Phone A", model.PriceFromFloat(1), "USD")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := model.NewHistory()
	if _, err := MergeToday(ctx, h, []string{"u1"}, f, jan2, MergeOptions{Policy: PolicySkip}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if len(h) != 0 {
		t.Error("cancelled merge must not write")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", PolicyAbort, false},
		{"abort", PolicyAbort, false},
		{" SKIP ", PolicySkip, false},
		{"retry", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
