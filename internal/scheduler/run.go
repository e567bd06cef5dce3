package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
)

// execute runs one full pipeline cycle: evaluate every registered
// dataset, persist outcomes and trend points, dispatch alerts and append
// the history entry. A cancelled cycle records cancelled status and
// writes neither outcomes nor trend points.
func (s *Scheduler) execute(ctx context.Context, trigger string) {
	start := time.Now().UTC()
	datasets := s.registry.Datasets()
	logger.Info("pipeline run starting",
		"pipeline", s.opts.PipelineName,
		"trigger", trigger,
		"datasets", len(datasets))

	s.disp.ResetCycle()
	outcomes := s.evaluateAll(ctx, datasets)

	if ctx.Err() != nil {
		s.finishCancelled(start)
		return
	}

	issues := 0
	anyCritical := false
	for _, o := range outcomes {
		if err := s.hist.SaveOutcome(ctx, o); err != nil {
			logger.Error("outcome save failed", "dataset", o.Dataset, "error", err.Error())
		}
		if err := s.trends.Record(ctx, o.Dataset, o.Timestamp, o.SuccessRate); err != nil {
			logger.Error("trend record failed", "dataset", o.Dataset, "error", err.Error())
		}
		issues += o.IssueCount()
		if o.Status == domain.OutcomeCritical {
			anyCritical = true
		}
	}

	alerts := s.disp.Dispatch(ctx, outcomes)

	status := domain.RunSuccess
	if anyCritical {
		status = domain.RunFailed
	}
	entry, err := s.hist.RecordCycle(ctx, start, status, time.Since(start), issues)
	if err != nil {
		logger.Error("history record failed", "error", err.Error())
	} else {
		s.lastMu.Lock()
		s.lastRun = &entry
		s.lastMu.Unlock()
	}

	s.hist.Prune(ctx, time.Now().UTC())
	s.runsCompleted.Add(1)

	logger.Info("pipeline run finished",
		"pipeline", s.opts.PipelineName,
		"status", string(status),
		"datasets", len(outcomes),
		"issues", issues,
		"alerts", len(alerts),
		"duration_ms", time.Since(start).Milliseconds())
}

// finishCancelled records the aborted cycle. Trend points and outcomes
// from the interrupted evaluation are deliberately discarded.
func (s *Scheduler) finishCancelled(start time.Time) {
	// The run context is dead, so persistence gets a fresh short one.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entry, err := s.hist.RecordCycle(ctx, start, domain.RunCancelled, time.Since(start), 0)
	if err != nil {
		logger.Error("history record failed", "error", err.Error())
	} else {
		s.lastMu.Lock()
		s.lastRun = &entry
		s.lastMu.Unlock()
	}
	s.runsCancelled.Add(1)
	logger.Warn("pipeline run cancelled",
		"pipeline", s.opts.PipelineName,
		"duration_ms", time.Since(start).Milliseconds())
}

// evaluateAll fans dataset evaluation out over a bounded pool. On
// cancellation it stops handing out new datasets; the partial results are
// discarded by the caller.
func (s *Scheduler) evaluateAll(ctx context.Context, datasets []string) []domain.RunOutcome {
	sem := make(chan struct{}, s.opts.MaxParallel)
	results := make([]domain.RunOutcome, len(datasets))
	var wg sync.WaitGroup

	for i, dataset := range datasets {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, dataset string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.evaluateDataset(ctx, dataset)
		}(i, dataset)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return results
}

// evaluateDataset snapshots one dataset and runs its suite under the
// per-dataset timeout. A timeout or snapshot failure yields a synthetic
// critical outcome so one broken dataset never stalls the cycle.
func (s *Scheduler) evaluateDataset(ctx context.Context, dataset string) domain.RunOutcome {
	suite, ok := s.registry.Suite(dataset)
	if !ok {
		// Registry and dataset list come from the same config; this is
		// unreachable unless the registry is misused.
		return s.syntheticCritical(dataset, 0, time.Now().UTC(), "dataset not registered")
	}

	start := time.Now().UTC()
	dctx, cancel := context.WithTimeout(ctx, s.opts.DatasetTimeout)
	defer cancel()

	snap, err := s.provider.Snapshot(dctx, dataset)
	if err != nil {
		if ctx.Err() != nil {
			return domain.RunOutcome{}
		}
		reason := fmt.Sprintf("snapshot failed: %v", err)
		if dctx.Err() == context.DeadlineExceeded {
			reason = fmt.Sprintf("evaluation timed out after %s", s.opts.DatasetTimeout)
		}
		logger.Error("dataset evaluation failed", "dataset", dataset, "error", reason)
		return s.syntheticCritical(dataset, len(suite.Expectations), start, reason)
	}

	results := expectation.EvaluateSuite(snap, suite)

	if dctx.Err() == context.DeadlineExceeded {
		logger.Error("dataset evaluation failed", "dataset", dataset,
			"error", "timed out", "timeout", s.opts.DatasetTimeout.String())
		return s.syntheticCritical(dataset, len(suite.Expectations), start,
			fmt.Sprintf("evaluation timed out after %s", s.opts.DatasetTimeout))
	}

	return s.agg.Aggregate(dataset, results, start, time.Now().UTC())
}

// syntheticCritical stands in for a dataset that could not be evaluated.
// Rate 0 and critical status make the failure visible in trends and
// alerts like any data issue.
func (s *Scheduler) syntheticCritical(dataset string, total int, start time.Time, reason string) domain.RunOutcome {
	return domain.RunOutcome{
		Dataset:     dataset,
		Timestamp:   start,
		Total:       total,
		Successful:  0,
		SuccessRate: 0,
		Status:      domain.OutcomeCritical,
		CheckResults: []domain.CheckResult{{
			Passed:       false,
			FailureCount: 1,
			Details:      reason,
		}},
		DurationMs: time.Since(start).Milliseconds(),
	}
}
