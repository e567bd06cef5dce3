// Package memory holds in-memory repository implementations. Used when no
// DATABASE_URL is configured (dev mode) and by the scheduler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

type trendKey struct {
	dataset string
	date    time.Time
}

// TrendRepo is an in-memory trend.Repository.
type TrendRepo struct {
	mu     sync.RWMutex
	points map[trendKey]domain.TrendPoint
}

// NewTrendRepo creates an empty in-memory trend repository.
func NewTrendRepo() *TrendRepo {
	return &TrendRepo{points: make(map[trendKey]domain.TrendPoint)}
}

func (r *TrendRepo) Upsert(_ context.Context, p domain.TrendPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[trendKey{dataset: p.Dataset, date: p.Date.UTC()}] = p
	return nil
}

func (r *TrendRepo) Query(_ context.Context, dataset string, from, to time.Time) ([]domain.TrendPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.TrendPoint
	for k, p := range r.points {
		if dataset != "" && k.dataset != dataset {
			continue
		}
		if k.date.Before(from) || k.date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
