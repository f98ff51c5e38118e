// Package history owns the persisted form of the price history.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"PriceSentinel/internal/model"
)

// ErrCorruptHistory is returned when persisted state exists but cannot be
// decoded. Callers must not treat it as an empty history.
var ErrCorruptHistory = errors.New("corrupt history")

// Store loads and saves the whole price history.
type Store interface {
	// Load returns the persisted history, or an empty one when nothing has
	// been saved yet.
	Load(ctx context.Context) (model.History, error)
	// Save replaces the persisted history. A failed Save leaves the previous
	// state intact.
	Save(ctx context.Context, h model.History) error
	// Location describes where the history lives, for log lines.
	Location() string
}

// Decode parses a history document. Empty or whitespace-only input is an
// empty history. Dates written in the legacy "02 January, 2006" layout are
// rewritten as ISO keys; when both forms name the same day the ISO entry wins.
// A null cell means the product has no entry for that date and is dropped.
func Decode(data []byte) (model.History, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.NewHistory(), nil
	}

	var raw map[string]map[string]*model.Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}

	h := model.NewHistory()
	for title, series := range raw {
		out := make(model.Series, len(series))
		var legacy []string
		for key, entry := range series {
			if !isISODate(key) {
				legacy = append(legacy, key)
				continue
			}
			if entry != nil {
				out[key] = *entry
			}
		}
		for _, key := range legacy {
			t, err := model.ParseDateKey(key)
			if err != nil {
				return nil, fmt.Errorf("%w: product %q: %v", ErrCorruptHistory, title, err)
			}
			if series[key] == nil {
				continue
			}
			iso := model.DateKey(t)
			if _, exists := out[iso]; !exists {
				out[iso] = *series[key]
			}
		}
		h[title] = out
	}
	return h, nil
}

// Encode renders h as indented JSON with sorted keys and a trailing newline.
func Encode(h model.History) ([]byte, error) {
	if h == nil {
		h = model.NewHistory()
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return append(data, '\n'), nil
}

func isISODate(key string) bool {
	t, err := model.ParseDateKey(key)
	return err == nil && model.DateKey(t) == key
}
