package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu       sync.Mutex
	Products map[string]model.Observation // keyed by URL
	Errors   map[string]error             // keyed by URL
	Now      func() time.Time
	calls    []string
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Products: make(map[string]model.Observation),
		Errors:   make(map[string]error),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Set registers the observation returned for url.
func (m *MockFetcher) Set(url, title string, price model.Price, currency model.Currency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[url] = model.Observation{Title: title, Price: price, Currency: currency}
}

// Fail makes every fetch of url return err.
func (m *MockFetcher) Fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[url] = err
}

// Calls returns the URLs fetched so far, in call order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockFetcher) FetchProduct(ctx context.Context, url string) (model.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)

	if err := ctx.Err(); err != nil {
		return model.Observation{}, err
	}
	if err, ok := m.Errors[url]; ok {
		return model.Observation{}, err
	}
	obs, ok := m.Products[url]
	if !ok {
		return model.Observation{}, fmt.Errorf("mock: no product for %s: %w", url, ErrNoContent)
	}
	obs.URL = url
	if m.Now != nil {
		obs.FetchedAt = m.Now()
	} else {
		obs.FetchedAt = time.Now()
	}
	return obs, nil
}
