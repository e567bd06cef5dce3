// Package scheduler drives the validation pipeline: it fires runs on the
// configured cadence, guards them with a distributed lock so at most one
// run is active, fans dataset evaluation out over a bounded worker pool
// and hands the outcomes to the trend store, run history and alert
// dispatcher.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/quality-monitor/internal/aggregate"
	"github.com/ignite/quality-monitor/internal/alert"
	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/pkg/distlock"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
	"github.com/ignite/quality-monitor/internal/service/history"
	"github.com/ignite/quality-monitor/internal/service/trend"
)

// LockFactory builds a fresh pipeline lock per run attempt. Lock
// instances are single-use; see distlock.DistLock.
type LockFactory func(key string, ttl time.Duration) distlock.DistLock

// Options configures the run cadence and execution limits.
type Options struct {
	// PipelineName keys the distributed lock and shows up in status.
	PipelineName string
	// DailyAt is the "HH:MM" UTC time of the scheduled daily run.
	DailyAt string
	// Interval, when positive, fires runs on a fixed period instead of
	// the daily schedule. Meant for dev mode and tests.
	Interval time.Duration
	// DatasetTimeout bounds one dataset's snapshot and evaluation.
	DatasetTimeout time.Duration
	// MaxParallel caps concurrently evaluated datasets.
	MaxParallel int
	// LockTTL is the pipeline lock's expiry, a safety net against
	// crashed holders.
	LockTTL time.Duration
}

func (o *Options) applyDefaults() {
	if o.PipelineName == "" {
		o.PipelineName = "data_quality_monitoring"
	}
	if o.DailyAt == "" {
		o.DailyAt = "06:00"
	}
	if o.DatasetTimeout <= 0 {
		o.DatasetTimeout = 2 * time.Minute
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = 4
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 15 * time.Minute
	}
}

// Status is a point-in-time view of the scheduler for the status API.
type Status struct {
	PipelineName     string                  `json:"pipeline_name"`
	SchedulerRunning bool                    `json:"scheduler_running"`
	RunActive        bool                    `json:"run_active"`
	NextFire         *time.Time              `json:"next_fire,omitempty"`
	RunsCompleted    int64                   `json:"runs_completed"`
	RunsSkipped      int64                   `json:"runs_skipped"`
	RunsCancelled    int64                   `json:"runs_cancelled"`
	AlertsSuppressed int64                   `json:"alerts_suppressed"`
	LastRun          *domain.RunHistoryEntry `json:"last_run,omitempty"`
}

// Scheduler owns the pipeline run lifecycle.
type Scheduler struct {
	registry *expectation.Registry
	provider expectation.Provider
	agg      *aggregate.Aggregator
	trends   *trend.Service
	hist     *history.Service
	disp     *alert.Dispatcher
	newLock  LockFactory
	opts     Options

	dailyHour, dailyMin int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	// runCancel is non-nil exactly while a run is in flight.
	runMu     sync.Mutex
	runCancel context.CancelFunc

	runsCompleted atomic.Int64
	runsSkipped   atomic.Int64
	runsCancelled atomic.Int64

	lastMu   sync.RWMutex
	lastRun  *domain.RunHistoryEntry
	nextFire time.Time
}

// New wires a scheduler. The options are validated on Start.
func New(
	registry *expectation.Registry,
	provider expectation.Provider,
	agg *aggregate.Aggregator,
	trends *trend.Service,
	hist *history.Service,
	disp *alert.Dispatcher,
	newLock LockFactory,
	opts Options,
) *Scheduler {
	opts.applyDefaults()
	return &Scheduler{
		registry: registry,
		provider: provider,
		agg:      agg,
		trends:   trends,
		hist:     hist,
		disp:     disp,
		newLock:  newLock,
		opts:     opts,
	}
}

// Start validates the schedule and begins the firing loop.
func (s *Scheduler) Start() error {
	hour, min, err := parseDailyAt(s.opts.DailyAt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.running = true
	s.dailyHour, s.dailyMin = hour, min
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	logger.Info("scheduler starting",
		"pipeline", s.opts.PipelineName,
		"daily_at", s.opts.DailyAt,
		"interval", s.opts.Interval.String(),
		"datasets", s.registry.Len())

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels any active run and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	logger.Info("scheduler stopped",
		"runs_completed", s.runsCompleted.Load(),
		"runs_skipped", s.runsSkipped.Load(),
		"runs_cancelled", s.runsCancelled.Load())
}

// TriggerRun starts a run immediately. It returns ErrRunInProgress when
// another run holds the pipeline lock; the trigger is rejected, never
// queued. The run itself proceeds asynchronously.
func (s *Scheduler) TriggerRun() error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return ErrNotStarted
	}
	return s.launch("manual")
}

// CancelRun aborts the in-flight run, if any. The aborted cycle is
// recorded with cancelled status and writes no trend points.
func (s *Scheduler) CancelRun() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.runCancel == nil {
		return ErrNoActiveRun
	}
	s.runCancel()
	return nil
}

// Status reports counters and the last completed run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	s.runMu.Lock()
	active := s.runCancel != nil
	s.runMu.Unlock()

	st := Status{
		PipelineName:     s.opts.PipelineName,
		SchedulerRunning: running,
		RunActive:        active,
		RunsCompleted:    s.runsCompleted.Load(),
		RunsSkipped:      s.runsSkipped.Load(),
		RunsCancelled:    s.runsCancelled.Load(),
		AlertsSuppressed: s.disp.SuppressedCount(),
	}

	s.lastMu.RLock()
	st.LastRun = s.lastRun
	if running && !s.nextFire.IsZero() {
		next := s.nextFire
		st.NextFire = &next
	}
	s.lastMu.RUnlock()
	return st
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		next := s.nextFireTime(time.Now().UTC())
		s.lastMu.Lock()
		s.nextFire = next
		s.lastMu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.launch("scheduled"); err == ErrRunInProgress {
				logger.Warn("scheduled run skipped, previous run still active",
					"pipeline", s.opts.PipelineName)
			} else if err != nil {
				logger.Error("scheduled run failed to start", "error", err.Error())
			}
		}
	}
}

// nextFireTime computes the next firing after now: a fixed interval when
// configured, otherwise the next daily HH:MM UTC occurrence.
func (s *Scheduler) nextFireTime(now time.Time) time.Time {
	if s.opts.Interval > 0 {
		return now.Add(s.opts.Interval)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), s.dailyHour, s.dailyMin, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// launch acquires the pipeline lock and, on success, runs the cycle in a
// goroutine. Both the lock and the local run flag must be free; either
// being held means another run is active.
func (s *Scheduler) launch(trigger string) error {
	lock := s.newLock("pipeline:"+s.opts.PipelineName, s.opts.LockTTL)
	acquired, err := lock.Acquire(s.ctx)
	if err != nil {
		return fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !acquired {
		s.runsSkipped.Add(1)
		return ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	s.runMu.Lock()
	if s.runCancel != nil {
		s.runMu.Unlock()
		cancel()
		lock.Release(context.Background())
		s.runsSkipped.Add(1)
		return ErrRunInProgress
	}
	s.runCancel = cancel
	s.runMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.runMu.Lock()
			s.runCancel = nil
			s.runMu.Unlock()
			cancel()
			lock.Release(context.Background())
		}()
		s.execute(runCtx, trigger)
	}()
	return nil
}

func parseDailyAt(v string) (hour, min int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily_at %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}
