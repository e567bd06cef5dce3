package expectation

import (
	"context"
	"fmt"
	"strconv"
)

// Snapshot is a read-only, schema-described view of a dataset, sufficient
// for every supported check. Implementations must never expose mutation.
type Snapshot interface {
	// Columns returns the dataset's column names.
	Columns() []string
	// Column returns every value in the named column, in row order.
	// Null cells are represented as nil.
	Column(name string) ([]any, error)
}

// Provider supplies dataset snapshots by name. The storage behind a
// provider is an external concern; the engine only requires this read
// interface.
type Provider interface {
	Snapshot(ctx context.Context, dataset string) (Snapshot, error)
}

// asFloat coerces a snapshot cell to float64 for range checks.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asString coerces a snapshot cell to its string form for regex and
// uniqueness checks.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
