package alert

import (
	"context"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// DeliveryRecord is one entry in the alert delivery audit log. Every
// dispatch attempt sequence produces exactly one record, delivered or not.
type DeliveryRecord struct {
	Alert      domain.Alert `json:"alert"`
	Attempts   int          `json:"attempts"`
	Delivered  bool         `json:"delivered"`
	LastError  string       `json:"last_error,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// AuditRepository persists the delivery audit log.
type AuditRepository interface {
	Record(ctx context.Context, rec DeliveryRecord) error
	List(ctx context.Context, limit int) ([]DeliveryRecord, error)
}
