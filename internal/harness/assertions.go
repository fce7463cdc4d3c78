package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/iocplan/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string                   // Assertion type for categorization
	Expected string                   // Human-readable expected outcome
	Actual   string                   // Human-readable actual outcome
	Records  []engine.ExecutionRecord // Executions for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nExecutions:\n")
		for _, rec := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %s @%s (unit %s, handled=%t)\n",
				rec.Seq, rec.Element, rec.Annotation, rec.Unit, rec.Handled)
		}
	}

	return buf.String()
}

func unitKeys(r *Result) []string {
	keys := make([]string, len(r.Units))
	for i, u := range r.Units {
		keys[i] = u.Key
	}
	return keys
}

// assertPlanOrder checks that units appear in the plan in the given order.
// Units don't need to be consecutive.
func assertPlanOrder(r *Result, assertion Assertion) error {
	keys := unitKeys(r)

	positions := make(map[string]int, len(assertion.Units))
	for _, unit := range assertion.Units {
		pos := slices.Index(keys, unit)
		if pos < 0 {
			return &AssertionError{
				Type:     AssertPlanOrder,
				Expected: fmt.Sprintf("all units planned: %v", assertion.Units),
				Actual:   fmt.Sprintf("missing unit %s in plan %v", unit, keys),
			}
		}
		positions[unit] = pos
	}

	for i := 1; i < len(assertion.Units); i++ {
		prev := assertion.Units[i-1]
		curr := assertion.Units[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertPlanOrder,
				Expected: fmt.Sprintf("units in order: %v", assertion.Units),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d) in plan %v",
					prev, positions[prev]+1, curr, positions[curr]+1, keys),
			}
		}
	}
	return nil
}

// assertPlanContains checks that a unit is planned with at least the given
// dependencies.
func assertPlanContains(r *Result, assertion Assertion) error {
	for _, u := range r.Units {
		if u.Key != assertion.Unit {
			continue
		}
		for _, dep := range assertion.DependsOn {
			if !slices.Contains(u.DependsOn, dep) {
				return &AssertionError{
					Type:     AssertPlanContains,
					Expected: fmt.Sprintf("unit %s depending on %s", assertion.Unit, dep),
					Actual:   fmt.Sprintf("depends on %v", u.DependsOn),
				}
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertPlanContains,
		Expected: fmt.Sprintf("unit %s", assertion.Unit),
		Actual:   fmt.Sprintf("not found in plan %v", unitKeys(r)),
	}
}

func matchesRecord(rec engine.ExecutionRecord, assertion Assertion) bool {
	if assertion.Element != "" && rec.Element != assertion.Element {
		return false
	}
	if assertion.Annotation != "" && rec.Annotation != assertion.Annotation {
		return false
	}
	return true
}

func describeTarget(assertion Assertion) string {
	target := assertion.Element
	if target == "" {
		target = "any element"
	}
	if assertion.Annotation != "" {
		target += " @" + assertion.Annotation
	}
	return target
}

// assertExecuted checks that a matching execution exists.
func assertExecuted(r *Result, assertion Assertion) error {
	for _, rec := range r.Records {
		if !matchesRecord(rec, assertion) {
			continue
		}
		if assertion.Handled != nil && rec.Handled != *assertion.Handled {
			return &AssertionError{
				Type:     AssertExecuted,
				Expected: fmt.Sprintf("%s with handled=%t", describeTarget(assertion), *assertion.Handled),
				Actual:   fmt.Sprintf("handled=%t", rec.Handled),
				Records:  r.Records,
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertExecuted,
		Expected: describeTarget(assertion),
		Actual:   "not executed",
		Records:  r.Records,
	}
}

// assertNotExecuted checks that no matching execution exists.
func assertNotExecuted(r *Result, assertion Assertion) error {
	for _, rec := range r.Records {
		if matchesRecord(rec, assertion) {
			return &AssertionError{
				Type:     AssertNotExecuted,
				Expected: fmt.Sprintf("%s not executed", describeTarget(assertion)),
				Actual:   fmt.Sprintf("executed at seq %d", rec.Seq),
				Records:  r.Records,
			}
		}
	}
	return nil
}

// assertExecutionCount checks the exact number of matching executions.
func assertExecutionCount(r *Result, assertion Assertion) error {
	count := 0
	for _, rec := range r.Records {
		if matchesRecord(rec, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertExecutionCount,
			Expected: fmt.Sprintf("%d executions of %s", assertion.Count, describeTarget(assertion)),
			Actual:   fmt.Sprintf("%d executions", count),
			Records:  r.Records,
		}
	}
	return nil
}

// assertInjected checks that a type was added and which annotations were
// handled on it, in order.
func assertInjected(r *Result, assertion Assertion) error {
	for _, it := range r.Injected {
		if it.Type != assertion.Element {
			continue
		}
		want := assertion.Annotations
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(it.Handled, want) {
			return &AssertionError{
				Type:     AssertInjected,
				Expected: fmt.Sprintf("%s handled by %v", assertion.Element, want),
				Actual:   fmt.Sprintf("handled by %v", it.Handled),
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertInjected,
		Expected: fmt.Sprintf("%s added to the injection context", assertion.Element),
		Actual:   "not added",
	}
}

// assertFailsWith checks the failure code.
func assertFailsWith(r *Result, assertion Assertion) error {
	if r.ErrorCode == assertion.Code {
		return nil
	}
	actual := "no failure"
	if r.Failed() {
		actual = fmt.Sprintf("%s (%s)", r.ErrorCode, r.Error)
	}
	return &AssertionError{
		Type:     AssertFailsWith,
		Expected: assertion.Code,
		Actual:   actual,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertPlanOrder:
			err = assertPlanOrder(result, assertion)
		case AssertPlanContains:
			err = assertPlanContains(result, assertion)
		case AssertExecuted:
			err = assertExecuted(result, assertion)
		case AssertNotExecuted:
			err = assertNotExecuted(result, assertion)
		case AssertExecutionCount:
			err = assertExecutionCount(result, assertion)
		case AssertInjected:
			err = assertInjected(result, assertion)
		case AssertFailsWith:
			err = assertFailsWith(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
