package history

import "errors"

// Sentinel errors for the run history service.
var (
	ErrNotFound     = errors.New("no outcome recorded for dataset")
	ErrInvalidRange = errors.New("invalid date range")
)
