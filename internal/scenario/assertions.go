package scenario

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/joinery/internal/coord"
	"github.com/roach88/joinery/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Fired    []string // full call log for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Fired: [%s]", strings.Join(e.Fired, " "))
	return buf.String()
}

// EvaluateAssertions checks the final coordinator state and call log.
// Returns one message per failed assertion (empty when all pass).
func EvaluateAssertions(c *coord.Coordinator, calls *testutil.CallLog, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(c, calls, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(c *coord.Coordinator, calls *testutil.CallLog, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Fired: calls.Labels()}
	}

	switch a.Type {
	case AssertFiredCount:
		if got := calls.Count(a.Callback); got != *a.Count {
			return fail(fmt.Sprintf("%s fired %d times", a.Callback, *a.Count),
				fmt.Sprintf("%s fired %d times", a.Callback, got))
		}
	case AssertFiredOrder:
		if got := calls.Labels(); !slices.Equal(got, a.Callbacks) {
			return fail(fmt.Sprintf("%v", a.Callbacks), fmt.Sprintf("%v", got))
		}
	case AssertOutstanding:
		if got := c.HasOutstanding(a.Group); got != *a.Value {
			return fail(fmt.Sprintf("outstanding(%s) = %t", a.Group, *a.Value),
				fmt.Sprintf("outstanding(%s) = %t", a.Group, got))
		}
	case AssertAttached:
		if got := c.IsAttached(a.Group); got != *a.Value {
			return fail(fmt.Sprintf("attached(%s) = %t", a.Group, *a.Value),
				fmt.Sprintf("attached(%s) = %t", a.Group, got))
		}
	case AssertCount:
		if got := c.Count(); got != *a.Count {
			return fail(fmt.Sprintf("%d attached groups", *a.Count), fmt.Sprintf("%d attached groups", got))
		}
	case AssertMembers:
		got := c.Members(a.Group)
		if got == nil {
			got = map[string]bool{}
		}
		if !maps.Equal(got, a.Members) {
			return fail(formatMembers(a.Members), formatMembers(got))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// formatMembers renders member flags in id order: "a=true b=false".
func formatMembers(m map[string]bool) string {
	ids := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%t", id, m[id])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
