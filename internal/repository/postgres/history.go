package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/service/history"
)

// HistoryRepo implements history.Repository against PostgreSQL. Run
// history rows are append-only; outcomes are upserted per dataset and day
// with the per-check results stored as JSONB.
type HistoryRepo struct{ db *sql.DB }

// NewHistoryRepo creates a Postgres-backed history repository.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) AppendEntry(ctx context.Context, e domain.RunHistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quality_run_history (id, run_date, overall_status, duration_ms, issues_found)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Date, e.OverallStatus, e.DurationMs, e.IssuesFound)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepo) ListEntries(ctx context.Context, from, to time.Time) ([]domain.RunHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_date, overall_status, duration_ms, issues_found
		FROM quality_run_history
		WHERE run_date >= $1 AND run_date <= $2
		ORDER BY run_date DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.RunHistoryEntry
	for rows.Next() {
		var e domain.RunHistoryEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.OverallStatus, &e.DurationMs, &e.IssuesFound); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (r *HistoryRepo) PruneEntries(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM quality_run_history WHERE run_date < $1
	`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *HistoryRepo) SaveOutcome(ctx context.Context, o domain.RunOutcome) error {
	results, err := json.Marshal(o.CheckResults)
	if err != nil {
		return fmt.Errorf("marshal check results: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quality_outcomes
			(dataset, run_at, total, successful, success_rate, status, check_results, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (dataset, run_at)
		DO UPDATE SET total = EXCLUDED.total,
		              successful = EXCLUDED.successful,
		              success_rate = EXCLUDED.success_rate,
		              status = EXCLUDED.status,
		              check_results = EXCLUDED.check_results,
		              duration_ms = EXCLUDED.duration_ms
	`, o.Dataset, o.Timestamp, o.Total, o.Successful, o.SuccessRate, o.Status, results, o.DurationMs)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

func (r *HistoryRepo) LatestOutcome(ctx context.Context, dataset string) (*domain.RunOutcome, error) {
	o := &domain.RunOutcome{}
	var results []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT dataset, run_at, total, successful, success_rate, status, check_results, duration_ms
		FROM quality_outcomes
		WHERE dataset = $1
		ORDER BY run_at DESC
		LIMIT 1
	`, dataset).Scan(
		&o.Dataset, &o.Timestamp, &o.Total, &o.Successful,
		&o.SuccessRate, &o.Status, &results, &o.DurationMs,
	)
	if err == sql.ErrNoRows {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest outcome: %w", err)
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &o.CheckResults); err != nil {
			return nil, fmt.Errorf("unmarshal check results: %w", err)
		}
	}
	return o, nil
}
