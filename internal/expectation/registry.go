package expectation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ignite/quality-monitor/internal/config"
	"github.com/ignite/quality-monitor/internal/domain"
)

// ConfigError reports a malformed suite definition. It is fatal at suite
// load time; validation guarantees it can never surface during a run.
type ConfigError struct {
	Dataset string
	Index   int
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("suite %q, expectation %d: %s", e.Dataset, e.Index, e.Reason)
}

// Registry holds the validated suites, keyed by dataset name. It is built
// once at startup and injected into the scheduler; runs never mutate it.
type Registry struct {
	order  []string
	suites map[string]domain.Suite
}

// NewRegistry validates the configured suites and builds the registry.
// Any unknown expectation type, missing column, bad regex, or inverted
// range fails construction.
func NewRegistry(cfgs []config.SuiteConfig) (*Registry, error) {
	r := &Registry{suites: make(map[string]domain.Suite, len(cfgs))}

	for _, sc := range cfgs {
		dataset := strings.TrimSpace(sc.Dataset)
		if dataset == "" {
			return nil, &ConfigError{Dataset: sc.Dataset, Index: -1, Reason: "dataset name is required"}
		}
		if _, dup := r.suites[dataset]; dup {
			return nil, &ConfigError{Dataset: dataset, Index: -1, Reason: "duplicate suite for dataset"}
		}

		suite := domain.Suite{Dataset: dataset}
		for i, ec := range sc.Expectations {
			exp, err := buildExpectation(dataset, i, ec)
			if err != nil {
				return nil, err
			}
			suite.Expectations = append(suite.Expectations, exp)
		}
		if len(suite.Expectations) == 0 {
			return nil, &ConfigError{Dataset: dataset, Index: -1, Reason: "suite has no expectations"}
		}

		r.order = append(r.order, dataset)
		r.suites[dataset] = suite
	}

	return r, nil
}

func buildExpectation(dataset string, i int, ec config.ExpectationConfig) (domain.Expectation, error) {
	t := domain.ExpectationType(strings.TrimSpace(ec.Type))
	if !domain.KnownExpectationType(t) {
		return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i,
			Reason: fmt.Sprintf("unknown expectation type %q", ec.Type)}
	}

	exp := domain.Expectation{
		Type:   t,
		Column: strings.TrimSpace(ec.Column),
		Params: domain.ExpectationParams{Pattern: ec.Pattern, Min: ec.Min, Max: ec.Max},
	}

	if exp.Column == "" {
		return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i, Reason: "column is required"}
	}

	switch t {
	case domain.ExpectMatchesRegex:
		if exp.Params.Pattern == "" {
			return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i, Reason: "pattern is required"}
		}
		if _, err := regexp.Compile(exp.Params.Pattern); err != nil {
			return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i,
				Reason: fmt.Sprintf("invalid pattern: %v", err)}
		}
	case domain.ExpectValueBetween:
		if exp.Params.Min == nil && exp.Params.Max == nil {
			return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i, Reason: "min or max is required"}
		}
		if exp.Params.Min != nil && exp.Params.Max != nil && *exp.Params.Min > *exp.Params.Max {
			return domain.Expectation{}, &ConfigError{Dataset: dataset, Index: i, Reason: "min must be <= max"}
		}
	}

	return exp, nil
}

// Datasets returns the dataset names in configuration order.
func (r *Registry) Datasets() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Suite returns the suite for a dataset.
func (r *Registry) Suite(dataset string) (domain.Suite, bool) {
	s, ok := r.suites[dataset]
	return s, ok
}

// Len returns the number of registered suites.
func (r *Registry) Len() int { return len(r.order) }
