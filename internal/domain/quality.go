package domain

import (
	"time"
)

// ExpectationType enumerates the supported declarative check types.
type ExpectationType string

const (
	ExpectColumnExists ExpectationType = "column_exists"
	ExpectUnique       ExpectationType = "unique"
	ExpectNotNull      ExpectationType = "not_null"
	ExpectMatchesRegex ExpectationType = "matches_regex"
	ExpectValueBetween ExpectationType = "value_between"
)

// KnownExpectationType reports whether t is part of the supported vocabulary.
func KnownExpectationType(t ExpectationType) bool {
	switch t {
	case ExpectColumnExists, ExpectUnique, ExpectNotNull, ExpectMatchesRegex, ExpectValueBetween:
		return true
	}
	return false
}

// ExpectationParams holds check-specific configuration. Only the fields
// relevant to the expectation's type are consulted.
type ExpectationParams struct {
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Expectation is a single declarative data-quality check. Immutable once
// defined; owned by a Suite.
type Expectation struct {
	Type   ExpectationType   `json:"type" yaml:"type"`
	Column string            `json:"column,omitempty" yaml:"column,omitempty"`
	Params ExpectationParams `json:"params,omitempty" yaml:"params,omitempty"`
}

// Suite is an ordered collection of expectations bound to one dataset.
// Suites are created at configuration time and never mutated by a run.
type Suite struct {
	Dataset      string        `json:"dataset" yaml:"dataset"`
	Expectations []Expectation `json:"expectations" yaml:"expectations"`
}

// CheckResult is the outcome of evaluating one expectation against a
// dataset snapshot. Details is populated only when the check fails.
type CheckResult struct {
	Expectation  Expectation `json:"expectation"`
	Passed       bool        `json:"passed"`
	FailureCount int         `json:"failure_count"`
	Details      string      `json:"details,omitempty"`
}

// OutcomeStatus classifies a RunOutcome's success rate.
type OutcomeStatus string

const (
	OutcomeSuccess  OutcomeStatus = "success"
	OutcomeWarning  OutcomeStatus = "warning"
	OutcomeCritical OutcomeStatus = "critical"
)

// RunOutcome is the suite-level result of evaluating one dataset in one
// scheduled cycle. Immutable after creation.
type RunOutcome struct {
	Dataset      string        `json:"dataset" db:"dataset"`
	Timestamp    time.Time     `json:"timestamp" db:"run_at"`
	Total        int           `json:"total_expectations" db:"total_expectations"`
	Successful   int           `json:"successful_expectations" db:"successful_expectations"`
	SuccessRate  float64       `json:"success_rate" db:"success_rate"`
	Status       OutcomeStatus `json:"status" db:"status"`
	CheckResults []CheckResult `json:"check_results"`
	DurationMs   int64         `json:"duration_ms" db:"duration_ms"`
}

// Failures returns the check results that did not pass, in report order.
func (o RunOutcome) Failures() []CheckResult {
	var out []CheckResult
	for _, r := range o.CheckResults {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// IssueCount is the number of failed expectations in this outcome.
func (o RunOutcome) IssueCount() int {
	n := 0
	for _, r := range o.CheckResults {
		if !r.Passed {
			n++
		}
	}
	return n
}

// RunStatus is the overall status of one pipeline cycle.
type RunStatus string

const (
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// RunHistoryEntry is one row per pipeline execution, covering every
// dataset evaluated in that cycle. Appended by the scheduler, never mutated.
type RunHistoryEntry struct {
	ID            string    `json:"id" db:"id"`
	Date          time.Time `json:"date" db:"run_date"`
	OverallStatus RunStatus `json:"overall_status" db:"overall_status"`
	DurationMs    int64     `json:"duration_ms" db:"duration_ms"`
	IssuesFound   int       `json:"issues_found" db:"issues_found"`
}

// TrendPoint is one observation in a dataset's success-rate time series.
type TrendPoint struct {
	Date        time.Time `json:"date" db:"trend_date"`
	Dataset     string    `json:"dataset" db:"dataset"`
	SuccessRate float64   `json:"success_rate" db:"success_rate"`
}

// Severity classifies an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a notification produced by the dispatcher for one RunOutcome.
// DedupeKey suppresses duplicate sends within a single run cycle.
type Alert struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Dataset     string    `json:"dataset"`
	Message     string    `json:"message"`
	SuccessRate float64   `json:"success_rate"`
	Timestamp   time.Time `json:"timestamp"`
	DedupeKey   string    `json:"dedupe_key"`
}
