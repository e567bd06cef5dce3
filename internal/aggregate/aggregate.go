// Package aggregate folds per-check results into a suite-level RunOutcome.
package aggregate

import (
	"math"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
)

// Thresholds is the success-rate classification policy. It is injected
// rather than hardcoded so operators can tune it without touching the
// engine or aggregator internals.
type Thresholds struct {
	// CriticalBelow is the rate under which an outcome is critical.
	// At or above it (but under 100) the outcome is a warning.
	CriticalBelow float64
}

// DefaultThresholds matches the stock policy: 100 → success,
// 70–99.9 → warning, below 70 → critical.
var DefaultThresholds = Thresholds{CriticalBelow: 70}

// Status classifies a success rate. The boundary is inclusive on the
// warning side: exactly CriticalBelow is a warning, not critical.
func (t Thresholds) Status(rate float64) domain.OutcomeStatus {
	switch {
	case rate >= 100:
		return domain.OutcomeSuccess
	case rate >= t.CriticalBelow:
		return domain.OutcomeWarning
	default:
		return domain.OutcomeCritical
	}
}

// Aggregator builds RunOutcomes from check results under one threshold policy.
type Aggregator struct {
	thresholds Thresholds
}

// New creates an aggregator with the given threshold policy.
func New(t Thresholds) *Aggregator {
	return &Aggregator{thresholds: t}
}

// Aggregate combines one dataset's check results into a RunOutcome.
// With zero results the success rate is 0 by convention.
func (a *Aggregator) Aggregate(dataset string, results []domain.CheckResult, start, end time.Time) domain.RunOutcome {
	total := len(results)
	successful := 0
	for _, r := range results {
		if r.Passed {
			successful++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total) * 100
		// One decimal place, matching the reported figures (83.3, 70.0).
		rate = math.Round(rate*10) / 10
	}

	return domain.RunOutcome{
		Dataset:      dataset,
		Timestamp:    end,
		Total:        total,
		Successful:   successful,
		SuccessRate:  rate,
		Status:       a.thresholds.Status(rate),
		CheckResults: results,
		DurationMs:   end.Sub(start).Milliseconds(),
	}
}
