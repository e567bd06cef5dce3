package trend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// AllDatasets is the query selector matching every dataset.
const AllDatasets = "all"

// Service implements trend store business logic on top of a repository.
// All public methods are safe for concurrent use if the underlying
// repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a trend service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends (or overwrites) the success rate for a dataset on a given
// date. The date is truncated to midnight UTC so one point exists per day.
func (s *Service) Record(ctx context.Context, dataset string, date time.Time, rate float64) error {
	if dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if rate < 0 || rate > 100 {
		return ErrInvalidRate
	}

	p := domain.TrendPoint{
		Dataset:     dataset,
		Date:        Day(date),
		SuccessRate: rate,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("record trend point: %w", err)
	}
	return nil
}

// Query returns one dataset's series within [from, to], sorted ascending
// by date. Pass AllDatasets to fetch every dataset's points in one flat,
// date-ordered slice.
func (s *Service) Query(ctx context.Context, dataset string, from, to time.Time) ([]domain.TrendPoint, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	sel := dataset
	if sel == AllDatasets {
		sel = ""
	}

	points, err := s.repo.Query(ctx, sel, Day(from), Day(to))
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	sortPoints(points)
	return points, nil
}

// Series returns one date-ordered series per dataset for joint charting.
func (s *Service) Series(ctx context.Context, dataset string, from, to time.Time) (map[string][]domain.TrendPoint, error) {
	points, err := s.Query(ctx, dataset, from, to)
	if err != nil {
		return nil, err
	}
	series := make(map[string][]domain.TrendPoint)
	for _, p := range points {
		series[p.Dataset] = append(series[p.Dataset], p)
	}
	return series, nil
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sortPoints(points []domain.TrendPoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Date.Equal(points[j].Date) {
			return points[i].Dataset < points[j].Dataset
		}
		return points[i].Date.Before(points[j].Date)
	})
}
