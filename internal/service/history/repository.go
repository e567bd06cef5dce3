package history

import (
	"context"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// Repository defines the data access contract for run history and the
// outcome log. Implementations must be safe for concurrent use; appends
// for different keys may proceed concurrently.
type Repository interface {
	// AppendEntry inserts one run history row.
	AppendEntry(ctx context.Context, e domain.RunHistoryEntry) error

	// ListEntries returns history rows within [from, to], newest first.
	ListEntries(ctx context.Context, from, to time.Time) ([]domain.RunHistoryEntry, error)

	// PruneEntries deletes history rows older than the cutoff and returns
	// the number removed.
	PruneEntries(ctx context.Context, olderThan time.Time) (int, error)

	// SaveOutcome upserts a dataset's outcome for its run date.
	SaveOutcome(ctx context.Context, o domain.RunOutcome) error

	// LatestOutcome returns the most recent outcome for a dataset.
	// Returns ErrNotFound if the dataset has never been evaluated.
	LatestOutcome(ctx context.Context, dataset string) (*domain.RunOutcome, error)
}
