package model

import "errors"

var (
	// ErrEmptyTitle is returned when a fetch yields no product title.
	ErrEmptyTitle = errors.New("observation has no title")

	// ErrBadDateKey is returned for a history date key in an unknown layout.
	ErrBadDateKey = errors.New("unrecognised date key")
)
