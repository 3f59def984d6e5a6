package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rulesort/internal/native"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Records  []any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nRecords:\n")
		for i, rec := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %v\n", i, rec)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertResultOrder:
		return assertResultOrder(result.Records, a)
	case AssertResultCount:
		if len(result.Records) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d records", a.Count),
				Actual:   fmt.Sprintf("%d records", len(result.Records)),
				Records:  result.Records,
			}
		}
	case AssertResultContains:
		return assertResultContains(result.Records, a)
	case AssertTotal:
		if result.Err == "" && result.Total != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("total %d", a.Count),
				Actual:   fmt.Sprintf("total %d", result.Total),
			}
		}
	case AssertError:
		if !strings.Contains(result.Err, a.Message) {
			actual := result.Err
			if actual == "" {
				actual = "no error"
			}
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("error containing %q", a.Message),
				Actual:   actual,
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertResultOrder(records []any, a Assertion) error {
	path := strings.Split(a.Path, ".")
	actual := make([]any, len(records))
	for i, rec := range records {
		actual[i] = native.Resolve(rec, path)
	}

	fail := &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s = %v", a.Path, a.Values),
		Actual:   fmt.Sprintf("%s = %v", a.Path, actual),
		Records:  records,
	}
	if len(actual) != len(a.Values) {
		return fail
	}
	for i := range actual {
		if native.Compare(actual[i], a.Values[i]) != 0 {
			return fail
		}
	}
	return nil
}

func assertResultContains(records []any, a Assertion) error {
	for _, rec := range records {
		if matchWhere(rec, a.Where) {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("a record matching %v", a.Where),
		Actual:   fmt.Sprintf("%d records, none matching", len(records)),
		Records:  records,
	}
}

// matchWhere reports whether every where path resolves to an equal value.
func matchWhere(record any, where map[string]any) bool {
	for path, want := range where {
		if native.Compare(native.Resolve(record, strings.Split(path, ".")), want) != 0 {
			return false
		}
	}
	return true
}
