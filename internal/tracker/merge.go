package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
)

// FailurePolicy decides what a fetch error does to the rest of the run.
type FailurePolicy string

const (
	// PolicyAbort stops the run on the first fetch error. Nothing is merged.
	PolicyAbort FailurePolicy = "abort"
	// PolicySkip leaves the failing product without an entry for today and
	// carries on with the others.
	PolicySkip FailurePolicy = "skip"
)

// ErrUnknownPolicy is returned by ParsePolicy for unsupported names.
var ErrUnknownPolicy = errors.New("unknown failure policy")

// ParsePolicy maps a config value to a FailurePolicy. Empty means abort.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// MergeOptions tunes MergeToday.
type MergeOptions struct {
	Policy FailurePolicy
	// Concurrency bounds parallel fetches. Values below 2 fetch sequentially.
	Concurrency int
}

// FetchFailure records a product that has no observation for today.
type FetchFailure struct {
	URL string
	Err error
}

// MergeResult describes what MergeToday wrote.
type MergeResult struct {
	History      model.History
	Date         string
	Observations []model.Observation // in URL order, successful fetches only
	Skipped      []FetchFailure
}

// MergeToday fetches every URL and writes each observation into h under
// today's date, keyed by title. Results are folded in URL order by a single
// goroutine, so when two URLs report the same title the later URL wins.
// Existing entries for today are overwritten, which makes re-runs idempotent.
//
// Under PolicyAbort the first failure is returned and h is not modified.
func MergeToday(ctx context.Context, h model.History, urls []string, fetcher collector.Fetcher, today time.Time, opts MergeOptions) (*MergeResult, error) {
	if h == nil {
		h = model.NewHistory()
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyAbort
	}

	results, err := fetchAll(ctx, urls, fetcher, policy, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{History: h, Date: model.DateKey(today)}
	for i, r := range results {
		if r.err != nil {
			log.Printf("[WARN] no observation today for %s: %v", urls[i], r.err)
			res.Skipped = append(res.Skipped, FetchFailure{URL: urls[i], Err: r.err})
			continue
		}
		h.Set(r.obs.Title, res.Date, r.obs.Entry())
		res.Observations = append(res.Observations, r.obs)
	}
	return res, nil
}

type fetchResult struct {
	obs model.Observation
	err error
}

// fetchAll returns one result per URL, indexed like urls. Under PolicyAbort
// the first error cancels outstanding fetches and is returned.
func fetchAll(ctx context.Context, urls []string, fetcher collector.Fetcher, policy FailurePolicy, concurrency int) ([]fetchResult, error) {
	results := make([]fetchResult, len(urls))
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, url := range urls {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			obs, err := fetchOne(gctx, fetcher, url)
			if err != nil {
				if policy == PolicyAbort {
					return err
				}
				results[i].err = err
				return nil
			}
			results[i].obs = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("merge cancelled: %w", err)
	}
	return results, nil
}

func fetchOne(ctx context.Context, fetcher collector.Fetcher, url string) (model.Observation, error) {
	obs, err := fetcher.FetchProduct(ctx, url)
	if err != nil {
		return model.Observation{}, fmt.Errorf("fetch %s via %s: %w", url, fetcher.Name(), err)
	}
	obs.Title = strings.TrimSpace(obs.Title)
	if obs.Title == "" {
		return model.Observation{}, fmt.Errorf("fetch %s via %s: %w", url, fetcher.Name(), model.ErrEmptyTitle)
	}
	if obs.URL == "" {
		obs.URL = url
	}
	return obs, nil
}
