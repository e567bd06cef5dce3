package trend

import (
	"context"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// Repository defines the data access contract for trend points.
// Implementations must be safe for concurrent use and must serialize
// writes per (dataset, date) key; different keys may write concurrently.
type Repository interface {
	// Upsert records a trend point, replacing any existing point with the
	// same (dataset, date) key.
	Upsert(ctx context.Context, p domain.TrendPoint) error

	// Query returns trend points for one dataset within [from, to],
	// in no guaranteed order. An empty dataset matches all datasets.
	Query(ctx context.Context, dataset string, from, to time.Time) ([]domain.TrendPoint, error)
}
