package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []domain.Alert
	failures int // fail this many sends before succeeding
}

func (f *fakeNotifier) Send(_ context.Context, a domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("webhook unreachable")
	}
	f.sent = append(f.sent, a)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	records []DeliveryRecord
}

func (m *memAudit) Record(_ context.Context, rec DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memAudit) List(_ context.Context, limit int) ([]DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

func newTestDispatcher(t *testing.T, n *fakeNotifier, audit *memAudit, policy Policy, maxAttempts int) *Dispatcher {
	t.Helper()
	renderer, err := NewMessageRenderer()
	require.NoError(t, err)
	d := NewDispatcher(n, audit, renderer, policy, maxAttempts)
	d.SetBaseDelay(time.Millisecond)
	return d
}

func outcome(dataset string, status domain.OutcomeStatus, successful, total int, rate float64) domain.RunOutcome {
	return domain.RunOutcome{
		Dataset:     dataset,
		Timestamp:   time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC),
		Total:       total,
		Successful:  successful,
		SuccessRate: rate,
		Status:      status,
	}
}

func TestDispatchSeverityMapping(t *testing.T) {
	n := &fakeNotifier{}
	d := newTestDispatcher(t, n, &memAudit{}, Policy{}, 3)

	alerts := d.Dispatch(context.Background(), []domain.RunOutcome{
		outcome("orders", domain.OutcomeCritical, 6, 10, 60.0),
		outcome("users", domain.OutcomeWarning, 10, 12, 83.3),
		outcome("products", domain.OutcomeSuccess, 8, 8, 100.0),
	})

	require.Len(t, alerts, 2, "success must not alert without info_on_success")
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "CRITICAL: Data quality check failed for orders. Success rate: 60.0% (6/10)", alerts[0].Message)
	assert.Equal(t, domain.SeverityWarning, alerts[1].Severity)
	assert.Equal(t, "WARNING: Data quality issues detected in users. Success rate: 83.3% (10/12)", alerts[1].Message)
}

func TestDispatchInfoOnSuccess(t *testing.T) {
	n := &fakeNotifier{}
	d := newTestDispatcher(t, n, &memAudit{}, Policy{InfoOnSuccess: true}, 3)

	alerts := d.Dispatch(context.Background(), []domain.RunOutcome{
		outcome("products", domain.OutcomeSuccess, 8, 8, 100.0),
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityInfo, alerts[0].Severity)
	assert.Equal(t, "SUCCESS: Data quality check passed for products. Success rate: 100.0%", alerts[0].Message)
}

func TestDispatchDedupeWithinCycle(t *testing.T) {
	n := &fakeNotifier{}
	d := newTestDispatcher(t, n, &memAudit{}, Policy{}, 3)
	ctx := context.Background()
	o := outcome("orders", domain.OutcomeCritical, 6, 10, 60.0)

	first := d.Dispatch(ctx, []domain.RunOutcome{o})
	second := d.Dispatch(ctx, []domain.RunOutcome{o})

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.EqualValues(t, 1, d.SuppressedCount())

	d.ResetCycle()
	third := d.Dispatch(ctx, []domain.RunOutcome{o})
	assert.Len(t, third, 1, "new cycle must alert again")
}

func TestDispatchSameDatasetDifferentSeverity(t *testing.T) {
	n := &fakeNotifier{}
	d := newTestDispatcher(t, n, &memAudit{}, Policy{}, 3)
	ctx := context.Background()

	d.Dispatch(ctx, []domain.RunOutcome{outcome("orders", domain.OutcomeCritical, 6, 10, 60.0)})
	alerts := d.Dispatch(ctx, []domain.RunOutcome{outcome("orders", domain.OutcomeWarning, 9, 10, 90.0)})

	assert.Len(t, alerts, 1, "different severity is not a duplicate")
	assert.EqualValues(t, 0, d.SuppressedCount())
}

func TestDeliveryRetryThenSuccess(t *testing.T) {
	n := &fakeNotifier{failures: 2}
	audit := &memAudit{}
	d := newTestDispatcher(t, n, audit, Policy{}, 3)

	d.Dispatch(context.Background(), []domain.RunOutcome{
		outcome("orders", domain.OutcomeCritical, 6, 10, 60.0),
	})

	require.Len(t, audit.records, 1)
	assert.True(t, audit.records[0].Delivered)
	assert.Equal(t, 3, audit.records[0].Attempts)
	assert.Empty(t, audit.records[0].LastError)
	assert.Len(t, n.sent, 1)
}

func TestDeliveryExhaustionAudited(t *testing.T) {
	n := &fakeNotifier{failures: 10}
	audit := &memAudit{}
	d := newTestDispatcher(t, n, audit, Policy{}, 3)

	d.Dispatch(context.Background(), []domain.RunOutcome{
		outcome("orders", domain.OutcomeCritical, 6, 10, 60.0),
	})

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.False(t, rec.Delivered)
	assert.Equal(t, 3, rec.Attempts)
	assert.Contains(t, rec.LastError, "webhook unreachable")
	assert.Empty(t, n.sent, "nothing delivered after exhaustion")
}
