package trend

import "errors"

// Sentinel errors for the trend store.
var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrInvalidRate  = errors.New("success rate must be between 0 and 100")
)
