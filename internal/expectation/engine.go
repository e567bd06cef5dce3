package expectation

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/ignite/quality-monitor/internal/domain"
)

// Evaluate runs one expectation against a dataset snapshot and returns its
// result. Evaluation is read-only over the snapshot and independent of any
// other expectation; order only affects report ordering.
//
// Unsupported expectation types never reach this function: suites are
// validated at load time (see Registry).
func Evaluate(snap Snapshot, exp domain.Expectation) domain.CheckResult {
	result := domain.CheckResult{Expectation: exp}

	switch exp.Type {
	case domain.ExpectColumnExists:
		if slices.Contains(snap.Columns(), exp.Column) {
			result.Passed = true
			return result
		}
		return fail(result, 1, fmt.Sprintf("column %q not found in schema", exp.Column))

	case domain.ExpectUnique:
		values, err := snap.Column(exp.Column)
		if err != nil {
			return fail(result, 1, fmt.Sprintf("column %q unreadable: %v", exp.Column, err))
		}
		seen := make(map[string]int, len(values))
		for _, v := range values {
			if v == nil {
				continue
			}
			seen[asString(v)]++
		}
		dupGroups := 0
		for _, n := range seen {
			if n > 1 {
				dupGroups++
			}
		}
		if dupGroups > 0 {
			return fail(result, dupGroups, fmt.Sprintf("%d duplicate values found in %q", dupGroups, exp.Column))
		}
		result.Passed = true
		return result

	case domain.ExpectNotNull:
		values, err := snap.Column(exp.Column)
		if err != nil {
			return fail(result, 1, fmt.Sprintf("column %q unreadable: %v", exp.Column, err))
		}
		nulls := 0
		for _, v := range values {
			if v == nil {
				nulls++
			}
		}
		if nulls > 0 {
			return fail(result, nulls, fmt.Sprintf("%d null values found in %q", nulls, exp.Column))
		}
		result.Passed = true
		return result

	case domain.ExpectMatchesRegex:
		values, err := snap.Column(exp.Column)
		if err != nil {
			return fail(result, 1, fmt.Sprintf("column %q unreadable: %v", exp.Column, err))
		}
		re, err := regexp.Compile(exp.Params.Pattern)
		if err != nil {
			// Unreachable after suite validation; defend against direct callers.
			return fail(result, 1, fmt.Sprintf("invalid pattern %q: %v", exp.Params.Pattern, err))
		}
		invalid := 0
		for _, v := range values {
			if v == nil {
				continue
			}
			if !re.MatchString(asString(v)) {
				invalid++
			}
		}
		if invalid > 0 {
			return fail(result, invalid, fmt.Sprintf("%d invalid values found in %q", invalid, exp.Column))
		}
		result.Passed = true
		return result

	case domain.ExpectValueBetween:
		values, err := snap.Column(exp.Column)
		if err != nil {
			return fail(result, 1, fmt.Sprintf("column %q unreadable: %v", exp.Column, err))
		}
		outOfRange := 0
		for _, v := range values {
			if v == nil {
				continue
			}
			f, ok := asFloat(v)
			if !ok {
				outOfRange++
				continue
			}
			if exp.Params.Min != nil && f < *exp.Params.Min {
				outOfRange++
				continue
			}
			if exp.Params.Max != nil && f > *exp.Params.Max {
				outOfRange++
			}
		}
		if outOfRange > 0 {
			return fail(result, outOfRange, fmt.Sprintf("%d values outside range found in %q", outOfRange, exp.Column))
		}
		result.Passed = true
		return result

	default:
		return fail(result, 1, fmt.Sprintf("unsupported expectation type %q", exp.Type))
	}
}

// EvaluateSuite runs every expectation in the suite, in order.
func EvaluateSuite(snap Snapshot, suite domain.Suite) []domain.CheckResult {
	results := make([]domain.CheckResult, 0, len(suite.Expectations))
	for _, exp := range suite.Expectations {
		results = append(results, Evaluate(snap, exp))
	}
	return results
}

func fail(r domain.CheckResult, count int, details string) domain.CheckResult {
	r.Passed = false
	r.FailureCount = count
	r.Details = details
	return r
}
