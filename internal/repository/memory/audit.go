package memory

import (
	"context"
	"sync"

	"github.com/ignite/quality-monitor/internal/alert"
)

// AuditRepo is an in-memory alert.AuditRepository.
type AuditRepo struct {
	mu      sync.RWMutex
	records []alert.DeliveryRecord
}

// NewAuditRepo creates an empty in-memory audit repository.
func NewAuditRepo() *AuditRepo { return &AuditRepo{} }

func (r *AuditRepo) Record(_ context.Context, rec alert.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// List returns the most recent records first.
func (r *AuditRepo) List(_ context.Context, limit int) ([]alert.DeliveryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]alert.DeliveryRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		out = append(out, r.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
