// Package notifier delivers alerts to external channels. The dispatcher
// depends only on the Send contract, not on any transport.
package notifier

import (
	"context"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// Notifier accepts an alert and reports delivery success or failure.
type Notifier interface {
	Send(ctx context.Context, a domain.Alert) error
}

// LogNotifier writes alerts to the structured log. Used in dev mode when
// no webhook is configured.
type LogNotifier struct{}

// Send logs the alert at a level matching its severity.
func (LogNotifier) Send(_ context.Context, a domain.Alert) error {
	switch a.Severity {
	case domain.SeverityCritical:
		logger.Error("alert", "dataset", a.Dataset, "severity", string(a.Severity), "message", a.Message)
	case domain.SeverityWarning:
		logger.Warn("alert", "dataset", a.Dataset, "severity", string(a.Severity), "message", a.Message)
	default:
		logger.Info("alert", "dataset", a.Dataset, "severity", string(a.Severity), "message", a.Message)
	}
	return nil
}
