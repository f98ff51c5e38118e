package collector

import (
	"context"
	"errors"

	"PriceSentinel/internal/model"
)

var (
	// ErrUnauthorized is returned when the scraping API rejects the credentials.
	ErrUnauthorized = errors.New("scraping api rejected credentials")

	// ErrNoContent is returned when the scraping API answers without a parsed product.
	ErrNoContent = errors.New("scraping api returned no product content")
)

// Fetcher returns the current observation for a product page.
// Implementations normalise malformed price and currency fields to the
// unavailable sentinels before returning.
type Fetcher interface {
	FetchProduct(ctx context.Context, url string) (model.Observation, error)
	Name() string
}
