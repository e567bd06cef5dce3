// Package alert maps run outcomes to alerts and delivers them with
// deduplication, bounded retry and a persistent delivery audit log.
package alert

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/notifier"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// Policy controls which outcomes produce alerts.
type Policy struct {
	// InfoOnSuccess emits an informational alert for fully passing
	// datasets. Off by default to keep channels quiet.
	InfoOnSuccess bool
}

// Dispatcher converts outcomes into alerts and hands them to a notifier.
// Duplicate alerts (same dataset, day and severity) within one cycle are
// suppressed.
type Dispatcher struct {
	notifier    notifier.Notifier
	audit       AuditRepository
	renderer    *MessageRenderer
	policy      Policy
	maxAttempts int
	baseDelay   time.Duration

	mu   sync.Mutex
	seen map[string]struct{}

	suppressed atomic.Int64
}

// NewDispatcher creates a dispatcher. maxAttempts bounds delivery retries
// per alert; values below 1 are treated as 1.
func NewDispatcher(n notifier.Notifier, audit AuditRepository, renderer *MessageRenderer, policy Policy, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Dispatcher{
		notifier:    n,
		audit:       audit,
		renderer:    renderer,
		policy:      policy,
		maxAttempts: maxAttempts,
		baseDelay:   500 * time.Millisecond,
		seen:        make(map[string]struct{}),
	}
}

// SetBaseDelay overrides the initial retry backoff. Used by tests.
func (d *Dispatcher) SetBaseDelay(delay time.Duration) {
	d.baseDelay = delay
}

// ResetCycle clears the dedupe window. The scheduler calls this at the
// start of every run so a new day's alerts are not suppressed by the
// previous cycle.
func (d *Dispatcher) ResetCycle() {
	d.mu.Lock()
	d.seen = make(map[string]struct{})
	d.mu.Unlock()
}

// SuppressedCount reports how many duplicate alerts were dropped since
// startup.
func (d *Dispatcher) SuppressedCount() int64 {
	return d.suppressed.Load()
}

// Dispatch evaluates each outcome against the policy and delivers the
// resulting alerts. Delivery failures never fail the pipeline run; they
// end up in the audit log instead. The produced alerts are returned for
// the caller's bookkeeping.
func (d *Dispatcher) Dispatch(ctx context.Context, outcomes []domain.RunOutcome) []domain.Alert {
	var alerts []domain.Alert
	for _, o := range outcomes {
		severity, ok := d.severityFor(o.Status)
		if !ok {
			continue
		}

		key := fmt.Sprintf("%s|%s|%s", o.Dataset, o.Timestamp.UTC().Format("2006-01-02"), severity)
		if d.alreadySeen(key) {
			d.suppressed.Add(1)
			logger.Debug("alert suppressed as duplicate", "dedupe_key", key)
			continue
		}

		msg, err := d.renderer.Render(severity, o)
		if err != nil {
			logger.Error("alert message render failed", "dataset", o.Dataset, "error", err.Error())
			continue
		}

		a := domain.Alert{
			ID:          uuid.New().String(),
			Severity:    severity,
			Dataset:     o.Dataset,
			Message:     msg,
			SuccessRate: o.SuccessRate,
			Timestamp:   o.Timestamp,
			DedupeKey:   key,
		}
		alerts = append(alerts, a)
		d.deliver(ctx, a)
	}
	return alerts
}

// severityFor maps an outcome status to an alert severity. The second
// return is false when the policy produces no alert for the status.
func (d *Dispatcher) severityFor(status domain.OutcomeStatus) (domain.Severity, bool) {
	switch status {
	case domain.OutcomeCritical:
		return domain.SeverityCritical, true
	case domain.OutcomeWarning:
		return domain.SeverityWarning, true
	case domain.OutcomeSuccess:
		if d.policy.InfoOnSuccess {
			return domain.SeverityInfo, true
		}
	}
	return "", false
}

func (d *Dispatcher) alreadySeen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.seen[key]; dup {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// deliver sends one alert with exponential backoff between attempts and
// records the result in the audit log.
func (d *Dispatcher) deliver(ctx context.Context, a domain.Alert) {
	var lastErr error
	attempts := 0
	delay := d.baseDelay

retry:
	for attempts < d.maxAttempts {
		attempts++
		lastErr = d.notifier.Send(ctx, a)
		if lastErr == nil {
			break
		}
		logger.Warn("alert delivery failed",
			"dataset", a.Dataset,
			"attempt", attempts,
			"error", lastErr.Error())
		if attempts == d.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(delay):
			delay *= 2
		}
	}

	rec := DeliveryRecord{
		Alert:      a,
		Attempts:   attempts,
		Delivered:  lastErr == nil,
		RecordedAt: time.Now().UTC(),
	}
	if lastErr != nil {
		rec.LastError = lastErr.Error()
		logger.Error("alert delivery exhausted retries",
			"dataset", a.Dataset,
			"severity", string(a.Severity),
			"attempts", attempts)
	}
	if err := d.audit.Record(ctx, rec); err != nil {
		logger.Error("alert audit write failed", "dataset", a.Dataset, "error", err.Error())
	}
}
