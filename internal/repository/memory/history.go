package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/service/history"
)

// HistoryRepo is an in-memory history.Repository.
type HistoryRepo struct {
	mu       sync.RWMutex
	entries  []domain.RunHistoryEntry
	outcomes map[string][]domain.RunOutcome
}

// NewHistoryRepo creates an empty in-memory history repository.
func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{outcomes: make(map[string][]domain.RunOutcome)}
}

func (r *HistoryRepo) AppendEntry(_ context.Context, e domain.RunHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *HistoryRepo) ListEntries(_ context.Context, from, to time.Time) ([]domain.RunHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.RunHistoryEntry
	for _, e := range r.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *HistoryRepo) PruneEntries(_ context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.RunHistoryEntry
	removed := 0
	for _, e := range r.entries {
		if e.Date.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}

func (r *HistoryRepo) SaveOutcome(_ context.Context, o domain.RunOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o.Dataset] = append(r.outcomes[o.Dataset], o)
	return nil
}

func (r *HistoryRepo) LatestOutcome(_ context.Context, dataset string) (*domain.RunOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.outcomes[dataset]
	if len(list) == 0 {
		return nil, history.ErrNotFound
	}
	o := list[len(list)-1]
	return &o, nil
}
