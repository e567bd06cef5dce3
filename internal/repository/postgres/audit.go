package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/quality-monitor/internal/alert"
)

// AuditRepo implements alert.AuditRepository against PostgreSQL. The full
// alert is stored as JSONB alongside the delivery bookkeeping columns.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed delivery audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Record(ctx context.Context, rec alert.DeliveryRecord) error {
	payload, err := json.Marshal(rec.Alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quality_alert_audit
			(alert_id, dataset, severity, alert, attempts, delivered, last_error, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`, rec.Alert.ID, rec.Alert.Dataset, rec.Alert.Severity, payload,
		rec.Attempts, rec.Delivered, rec.LastError, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, limit int) ([]alert.DeliveryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT alert, attempts, delivered, COALESCE(last_error, ''), recorded_at
		FROM quality_alert_audit
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []alert.DeliveryRecord
	for rows.Next() {
		var rec alert.DeliveryRecord
		var payload []byte
		if err := rows.Scan(&payload, &rec.Attempts, &rec.Delivered, &rec.LastError, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Alert); err != nil {
			return nil, fmt.Errorf("unmarshal alert: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return out, nil
}
