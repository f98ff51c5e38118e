package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"PriceSentinel/internal/model"
)

// DefaultOxylabsURL is the realtime endpoint of the Oxylabs scraper API.
const DefaultOxylabsURL = "https://realtime.oxylabs.io/v1/queries"

// OxylabsConfig holds everything the Oxylabs fetcher needs. It is filled from
// config.Config by the caller; the fetcher never reads the environment.
type OxylabsConfig struct {
	BaseURL           string
	Username          string
	Password          string
	Source            string
	GeoLocation       string
	RequestsPerSecond float64
	Timeout           time.Duration
	Proxy             string
}

// OxylabsFetcher implements Fetcher using the Oxylabs realtime scraper API
// with the universal e-commerce parser.
type OxylabsFetcher struct {
	cfg     OxylabsConfig
	client  *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewOxylabsFetcher creates a fetcher with optional proxy support.
func NewOxylabsFetcher(cfg OxylabsConfig) *OxylabsFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOxylabsURL
	}
	if cfg.Source == "" {
		cfg.Source = "universal_ecommerce"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetBasicAuth(cfg.Username, cfg.Password)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r.StatusCode() >= http.StatusInternalServerError
	})

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OxylabsFetcher{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (f *OxylabsFetcher) Name() string { return "oxylabs" }

type oxylabsQuery struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	GeoLocation string `json:"geo_location,omitempty"`
	Parse       bool   `json:"parse"`
}

type oxylabsResponse struct {
	Results []struct {
		Content    json.RawMessage `json:"content"`
		StatusCode int             `json:"status_code"`
	} `json:"results"`
}

type oxylabsContent struct {
	Title string          `json:"title"`
	Price json.RawMessage `json:"price"`
}

// FetchProduct posts a realtime query for url and decodes the parsed product.
func (f *OxylabsFetcher) FetchProduct(ctx context.Context, url string) (model.Observation, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return model.Observation{}, fmt.Errorf("oxylabs rate limiter: %w", err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(oxylabsQuery{
			Source:      f.cfg.Source,
			URL:         url,
			GeoLocation: f.cfg.GeoLocation,
			Parse:       true,
		}).
		Post(f.cfg.BaseURL)
	if err != nil {
		return model.Observation{}, fmt.Errorf("oxylabs query %s: %w", url, err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return model.Observation{}, fmt.Errorf("oxylabs query %s: status %d: %w", url, resp.StatusCode(), ErrUnauthorized)
	case resp.StatusCode() != http.StatusOK:
		return model.Observation{}, fmt.Errorf("oxylabs query %s: status %d, body: %s", url, resp.StatusCode(), truncate(resp.String(), 200))
	}

	obs, err := decodeOxylabs(resp.Body())
	if err != nil {
		return model.Observation{}, fmt.Errorf("oxylabs query %s: %w", url, err)
	}
	obs.URL = url
	obs.FetchedAt = f.now()
	if !obs.Price.Available() {
		log.Printf("[WARN] oxylabs: price unavailable for %s", url)
	}
	return obs, nil
}

func decodeOxylabs(body []byte) (model.Observation, error) {
	var out oxylabsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Observation{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) == 0 || len(out.Results[0].Content) == 0 {
		return model.Observation{}, ErrNoContent
	}

	var content oxylabsContent
	if err := json.Unmarshal(out.Results[0].Content, &content); err != nil {
		return model.Observation{}, fmt.Errorf("decode content: %w", err)
	}
	title := strings.TrimSpace(content.Title)
	if title == "" {
		return model.Observation{}, model.ErrEmptyTitle
	}

	price, currency := decodePriceField(content.Price)
	return model.Observation{Title: title, Price: price, Currency: currency}, nil
}

// decodePriceField handles the shapes the parser emits for "price": an object
// {"price": ..., "currency": ...}, a bare number, or an error string.
func decodePriceField(raw json.RawMessage) (model.Price, model.Currency) {
	if len(raw) == 0 {
		return model.PriceUnavailable, model.CurrencyUnavailable
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return model.PriceUnavailable, model.CurrencyUnavailable
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return NormalizePrice(v), model.CurrencyUnavailable
	}
	return NormalizePrice(obj["price"]), NormalizeCurrency(obj["currency"])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
