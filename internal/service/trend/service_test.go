package trend_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/service/trend"
)

// memRepo is an in-memory trend repository for unit testing.
type memRepo struct {
	mu     sync.Mutex
	points map[string]domain.TrendPoint // keyed by dataset|date
}

func newMemRepo() *memRepo {
	return &memRepo{points: make(map[string]domain.TrendPoint)}
}

func key(dataset string, date time.Time) string {
	return dataset + "|" + date.Format("2006-01-02")
}

func (m *memRepo) Upsert(_ context.Context, p domain.TrendPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[key(p.Dataset, p.Date)] = p
	return nil
}

func (m *memRepo) Query(_ context.Context, dataset string, from, to time.Time) ([]domain.TrendPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TrendPoint
	for _, p := range m.points {
		if dataset != "" && p.Dataset != dataset {
			continue
		}
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestRecordAndQuery(t *testing.T) {
	svc := trend.NewService(newMemRepo())
	ctx := context.Background()

	for i, rate := range []float64{85, 87, 84, 89} {
		d := day("2024-01-01").AddDate(0, 0, i)
		if err := svc.Record(ctx, "users", d, rate); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	points, err := svc.Query(ctx, "users", day("2024-01-01"), day("2024-01-04"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			t.Fatal("points not sorted ascending by date")
		}
	}
}

func TestRecordIdempotentPerKey(t *testing.T) {
	repo := newMemRepo()
	svc := trend.NewService(repo)
	ctx := context.Background()

	d := day("2024-01-07")
	if err := svc.Record(ctx, "orders", d, 78); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := svc.Record(ctx, "orders", d, 70); err != nil {
		t.Fatalf("second record: %v", err)
	}

	points, err := svc.Query(ctx, "orders", d, d)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point for same key, got %d", len(points))
	}
	if points[0].SuccessRate != 70 {
		t.Fatalf("expected latest value 70, got %.1f", points[0].SuccessRate)
	}
}

func TestTimeOfDayCollapsesToSameKey(t *testing.T) {
	svc := trend.NewService(newMemRepo())
	ctx := context.Background()

	morning := time.Date(2024, 1, 7, 6, 15, 0, 0, time.UTC)
	evening := time.Date(2024, 1, 7, 18, 0, 0, 0, time.UTC)
	_ = svc.Record(ctx, "users", morning, 83)
	_ = svc.Record(ctx, "users", evening, 85)

	points, _ := svc.Query(ctx, "users", day("2024-01-07"), day("2024-01-07"))
	if len(points) != 1 {
		t.Fatalf("expected same-day records to collapse, got %d points", len(points))
	}
}

func TestSeriesPerDataset(t *testing.T) {
	svc := trend.NewService(newMemRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := day("2024-01-01").AddDate(0, 0, i)
		_ = svc.Record(ctx, "users", d, 85)
		_ = svc.Record(ctx, "products", d, 99)
		_ = svc.Record(ctx, "orders", d, 75)
	}

	series, err := svc.Series(ctx, trend.AllDatasets, day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(series))
	}
	for name, pts := range series {
		if len(pts) != 3 {
			t.Fatalf("series %s: expected 3 points, got %d", name, len(pts))
		}
	}
}

func TestInvalidRange(t *testing.T) {
	svc := trend.NewService(newMemRepo())
	_, err := svc.Query(context.Background(), "users", day("2024-01-07"), day("2024-01-01"))
	if err != trend.ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestInvalidRate(t *testing.T) {
	svc := trend.NewService(newMemRepo())
	if err := svc.Record(context.Background(), "users", day("2024-01-01"), 101); err != trend.ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if err := svc.Record(context.Background(), "users", day("2024-01-01"), -1); err != trend.ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}
