package scenario

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/agnivade/levenshtein"
)

// Semantic validation error codes (E201-E219)
const (
	ErrUnknownOp          = "E201" // op is not one of Ops
	ErrMissingGroup       = "E202" // group (or group_pattern) required
	ErrInvalidPattern     = "E203" // pattern does not compile
	ErrConflictingTarget  = "E204" // literal and pattern both set
	ErrMissingCallback    = "E205" // attach without a callback label
	ErrUnknownAssertion   = "E206" // assertion type is not one of AssertionTypes
	ErrUnknownCallback    = "E207" // label never attached
	ErrInvalidDuration    = "E208" // duration does not parse
	ErrMisplacedField     = "E209" // field has no meaning for this op
	ErrMissingAssertField = "E210" // assertion is missing a required field
)

// maxSuggestionDistance bounds how different a "did you mean" candidate
// may be from the input.
const maxSuggestionDistance = 3

// ValidationError is one problem found in a scenario.
type ValidationError struct {
	Field      string `json:"field"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Validate checks a decoded scenario for semantic problems.
// Returns all errors found (does not fail-fast).
func Validate(s *Scenario) []ValidationError {
	var errs []ValidationError
	add := func(field, code, msg, suggestion string) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: msg, Suggestion: suggestion})
	}

	if s.Debounce != "" {
		if _, err := parseDuration(s.Debounce); err != nil {
			add("debounce", ErrInvalidDuration, err.Error(), "")
		}
	}

	var labels []string
	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)

		if !slices.Contains(Ops, step.Op) {
			add(field+".op", ErrUnknownOp, fmt.Sprintf("unknown op %q", step.Op), suggest(step.Op, Ops))
			continue
		}

		switch step.Op {
		case OpTriggerSimilar:
			if step.Group != "" && step.GroupPattern != "" {
				add(field, ErrConflictingTarget, "set group or group_pattern, not both", "")
			}
			if step.Group == "" && step.GroupPattern == "" {
				add(field+".group", ErrMissingGroup, "group or group_pattern is required", "")
			}
			if step.ID != "" && step.IDPattern != "" {
				add(field, ErrConflictingTarget, "set id or id_pattern, not both", "")
			}
			patterns := []struct{ name, expr string }{
				{"group_pattern", step.GroupPattern},
				{"id_pattern", step.IDPattern},
			}
			for _, p := range patterns {
				if p.expr == "" {
					continue
				}
				if _, err := regexp.Compile(p.expr); err != nil {
					add(field+"."+p.name, ErrInvalidPattern, err.Error(), "")
				}
			}
		case OpAdvance:
			if step.Duration == "" {
				add(field+".duration", ErrInvalidDuration, "duration is required for advance", "")
			} else if _, err := parseDuration(step.Duration); err != nil {
				add(field+".duration", ErrInvalidDuration, err.Error(), "")
			}
		default:
			if step.Group == "" {
				add(field+".group", ErrMissingGroup, fmt.Sprintf("group is required for %s", step.Op), "")
			}
			if step.GroupPattern != "" || step.IDPattern != "" {
				add(field, ErrMisplacedField, "patterns are only valid for trigger_similar", "")
			}
		}

		if step.Op == OpAttach {
			if step.Callback == "" {
				add(field+".callback", ErrMissingCallback, "attach requires a callback label", "")
			} else if !slices.Contains(labels, step.Callback) {
				labels = append(labels, step.Callback)
			}
		} else if step.Callback != "" || step.Remove || step.Reset {
			add(field, ErrMisplacedField, "callback, remove and reset are only valid for attach", "")
		}

		if step.Op != OpAdvance && step.Duration != "" {
			add(field+".duration", ErrMisplacedField, "duration is only valid for advance", "")
		}

		if step.Expect != nil && step.Expect.Result != nil {
			switch step.Op {
			case OpTrigger, OpTriggerSimilar, OpDetach, OpAttach:
			default:
				add(field+".expect.result", ErrMisplacedField, fmt.Sprintf("%s has no result", step.Op), "")
			}
		}
	}

	// Labels are checked after every attach is known, so expectations may
	// name a callback attached by a later step only if it really is attached.
	for i, step := range s.Steps {
		if step.Expect == nil {
			continue
		}
		for j, label := range step.Expect.Fired {
			if !slices.Contains(labels, label) {
				add(fmt.Sprintf("steps[%d].expect.fired[%d]", i, j), ErrUnknownCallback,
					fmt.Sprintf("callback %q is never attached", label), suggest(label, labels))
			}
		}
	}

	for i, a := range s.Assertions {
		field := fmt.Sprintf("assertions[%d]", i)
		errs = append(errs, validateAssertion(field, a, labels)...)
	}

	return errs
}

func validateAssertion(field string, a Assertion, labels []string) []ValidationError {
	var errs []ValidationError
	missing := func(name string) {
		errs = append(errs, ValidationError{
			Field:   field + "." + name,
			Code:    ErrMissingAssertField,
			Message: fmt.Sprintf("%s is required for %s", name, a.Type),
		})
	}
	checkLabel := func(name, label string) {
		if !slices.Contains(labels, label) {
			errs = append(errs, ValidationError{
				Field:      field + "." + name,
				Code:       ErrUnknownCallback,
				Message:    fmt.Sprintf("callback %q is never attached", label),
				Suggestion: suggest(label, labels),
			})
		}
	}

	switch a.Type {
	case AssertFiredCount:
		if a.Callback == "" {
			missing("callback")
		} else {
			checkLabel("callback", a.Callback)
		}
		if a.Count == nil {
			missing("count")
		}
	case AssertFiredOrder:
		if a.Callbacks == nil {
			missing("callbacks")
		}
		for j, label := range a.Callbacks {
			checkLabel(fmt.Sprintf("callbacks[%d]", j), label)
		}
	case AssertOutstanding, AssertAttached:
		if a.Group == "" {
			missing("group")
		}
		if a.Value == nil {
			missing("value")
		}
	case AssertCount:
		if a.Count == nil {
			missing("count")
		}
	case AssertMembers:
		if a.Group == "" {
			missing("group")
		}
		if a.Members == nil {
			missing("members")
		}
	default:
		errs = append(errs, ValidationError{
			Field:      field + ".type",
			Code:       ErrUnknownAssertion,
			Message:    fmt.Sprintf("unknown assertion type %q", a.Type),
			Suggestion: suggest(a.Type, AssertionTypes),
		})
	}

	return errs
}

// suggest returns the candidate closest to input by edit distance, or ""
// when nothing is within maxSuggestionDistance. Ties go to the earlier
// candidate.
func suggest(input string, candidates []string) string {
	if input == "" {
		return ""
	}

	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// parseDuration accepts Go durations ("250ms", "1.5s") and bare
// integers, which are milliseconds. Negative values are rejected.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
