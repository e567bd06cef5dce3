package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// TrendRepo implements trend.Repository against PostgreSQL. The
// (dataset, trend_date) primary key makes Upsert idempotent per day.
type TrendRepo struct{ db *sql.DB }

// NewTrendRepo creates a Postgres-backed trend repository.
func NewTrendRepo(db *sql.DB) *TrendRepo { return &TrendRepo{db: db} }

func (r *TrendRepo) Upsert(ctx context.Context, p domain.TrendPoint) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quality_trends (dataset, trend_date, success_rate, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (dataset, trend_date)
		DO UPDATE SET success_rate = EXCLUDED.success_rate, updated_at = NOW()
	`, p.Dataset, p.Date, p.SuccessRate)
	if err != nil {
		return fmt.Errorf("upsert trend point: %w", err)
	}
	return nil
}

func (r *TrendRepo) Query(ctx context.Context, dataset string, from, to time.Time) ([]domain.TrendPoint, error) {
	q := `
		SELECT dataset, trend_date, success_rate
		FROM quality_trends
		WHERE trend_date >= $1 AND trend_date <= $2`
	args := []interface{}{from, to}
	if dataset != "" {
		q += " AND dataset = $3"
		args = append(args, dataset)
	}
	q += " ORDER BY trend_date ASC, dataset ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var out []domain.TrendPoint
	for rows.Next() {
		var p domain.TrendPoint
		if err := rows.Scan(&p.Dataset, &p.Date, &p.SuccessRate); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return out, nil
}
