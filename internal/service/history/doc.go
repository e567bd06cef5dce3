// Package history implements the pipeline run history and the per-dataset
// outcome log.
//
// Run history holds one entry per dispatch cycle; the outcome log holds
// each dataset's RunOutcome keyed by (dataset, date). Both are append-only
// from the scheduler's point of view; the only destructive operation is
// retention pruning of history rows past the configured window.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package history
