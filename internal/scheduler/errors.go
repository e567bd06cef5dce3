package scheduler

import "errors"

var (
	// ErrRunInProgress is returned when a trigger arrives while another
	// run holds the pipeline lock. Conflicting triggers are rejected, not
	// queued.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")

	// ErrNoActiveRun is returned by CancelRun when nothing is running.
	ErrNoActiveRun = errors.New("no active pipeline run")

	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrNotStarted is returned by TriggerRun before Start.
	ErrNotStarted = errors.New("scheduler not started")
)
