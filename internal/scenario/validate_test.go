package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_TestdataScenariosAreValid(t *testing.T) {
	paths, err := Discover(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)
			assert.Empty(t, Validate(s))
		})
	}
}

func TestValidate_Typos(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "invalid", "typos.yaml"))
	require.NoError(t, err)

	errs := Validate(s)
	require.Len(t, errs, 4, "got %v", errs)

	assert.Equal(t, ErrUnknownOp, errs[0].Code)
	assert.Equal(t, "steps[0].op", errs[0].Field)
	assert.Equal(t, OpTrigger, errs[0].Suggestion)

	assert.Equal(t, ErrInvalidPattern, errs[1].Code)
	assert.Equal(t, "steps[2].group_pattern", errs[1].Field)

	assert.Equal(t, ErrUnknownAssertion, errs[2].Code)
	assert.Equal(t, AssertFiredCount, errs[2].Suggestion)

	assert.Equal(t, ErrUnknownCallback, errs[3].Code)
	assert.Equal(t, "assertions[1].callback", errs[3].Field)
	assert.Equal(t, "done", errs[3].Suggestion)
}

func TestValidate_StepRules(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want []string
	}{
		{"attach without label", Step{Op: OpAttach, Group: "g"}, []string{ErrMissingCallback}},
		{"trigger without group", Step{Op: OpTrigger, ID: "a"}, []string{ErrMissingGroup}},
		{"pattern outside trigger_similar", Step{Op: OpTrigger, Group: "g", IDPattern: "a"}, []string{ErrMisplacedField}},
		{"group and pattern", Step{Op: OpTriggerSimilar, Group: "g", GroupPattern: "g"}, []string{ErrConflictingTarget}},
		{"id and pattern", Step{Op: OpTriggerSimilar, Group: "g", ID: "a", IDPattern: "a"}, []string{ErrConflictingTarget}},
		{"bad id pattern", Step{Op: OpTriggerSimilar, Group: "g", IDPattern: "[a"}, []string{ErrInvalidPattern}},
		{"advance without duration", Step{Op: OpAdvance}, []string{ErrInvalidDuration}},
		{"advance bad duration", Step{Op: OpAdvance, Duration: "soon"}, []string{ErrInvalidDuration}},
		{"advance negative", Step{Op: OpAdvance, Duration: "-5"}, []string{ErrInvalidDuration}},
		{"duration on trigger", Step{Op: OpTrigger, Group: "g", Duration: "1s"}, []string{ErrMisplacedField}},
		{"policy on reset", Step{Op: OpReset, Group: "g", Remove: true}, []string{ErrMisplacedField}},
		{"result on add_group", Step{Op: OpAddGroup, Group: "g", Expect: &Expect{Result: boolPtr(true)}}, []string{ErrMisplacedField}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Name: "x", Steps: []Step{tt.step}}
			assert.Equal(t, tt.want, codes(Validate(s)))
		})
	}
}

func TestValidate_AssertionFields(t *testing.T) {
	s := &Scenario{
		Name:  "x",
		Steps: []Step{{Op: OpAttach, Group: "g", Callback: "cb"}},
		Assertions: []Assertion{
			{Type: AssertFiredCount, Callback: "cb"},
			{Type: AssertOutstanding},
			{Type: AssertMembers, Group: "g"},
			{Type: AssertCount, Count: intPtr(1)},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 4)
	assert.Equal(t, "assertions[0].count", errs[0].Field)
	assert.Equal(t, "assertions[1].group", errs[1].Field)
	assert.Equal(t, "assertions[1].value", errs[2].Field)
	assert.Equal(t, "assertions[2].members", errs[3].Field)
	for _, e := range errs {
		assert.Equal(t, ErrMissingAssertField, e.Code)
	}
}

func TestValidate_ExpectedLabelMustBeAttached(t *testing.T) {
	s := &Scenario{
		Name: "x",
		Steps: []Step{
			{Op: OpTrigger, Group: "g", Expect: &Expect{Fired: []string{"later"}}},
			{Op: OpAttach, Group: "g", Callback: "later"},
			{Op: OpTrigger, Group: "g", Expect: &Expect{Fired: []string{"latter"}}},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, "steps[2].expect.fired[0]", errs[0].Field)
	assert.Equal(t, "later", errs[0].Suggestion)
}

func TestValidate_Debounce(t *testing.T) {
	s := &Scenario{Name: "x", Debounce: "fast", Steps: []Step{{Op: OpReset, Group: "g"}}}
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, "debounce", errs[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "steps[0].op", Code: ErrUnknownOp, Message: `unknown op "triger"`, Suggestion: "trigger"}
	assert.Equal(t, `[E201] steps[0].op: unknown op "triger" (did you mean "trigger"?)`, e.Error())

	e.Suggestion = ""
	assert.Equal(t, `[E201] steps[0].op: unknown op "triger"`, e.Error())
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "attach", suggest("atach", Ops))
	assert.Equal(t, "", suggest("completely_different", Ops))
	assert.Equal(t, "", suggest("", Ops))
	assert.Equal(t, "", suggest("x", nil))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0s", false},
		{"250", "250ms", false},
		{"1.5s", "1.5s", false},
		{"2m", "2m0s", false},
		{"-1s", "", true},
		{"-3", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseDuration(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestValidateSchema(t *testing.T) {
	for _, name := range []string{"upload_barrier", "detach_silences", "debounce_reset", "similar_remove"} {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			assert.Empty(t, ValidateSchema(data))
		})
	}
}

func TestValidateSchema_Errors(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "invalid", "schema_errors.yaml"))
	require.NoError(t, err)

	errs := ValidateSchema(data)
	require.NotEmpty(t, errs)

	fields := make(map[string]bool)
	for _, e := range errs {
		assert.Equal(t, ErrCodeSchema, e.Code)
		fields[e.Field] = true
	}
	assert.True(t, fields["steps.0.op"], "got %v", errs)
	assert.True(t, fields["steps.0.group"], "got %v", errs)
	assert.True(t, fields["steps.0.colour"], "got %v", errs)
}

func TestValidateSchema_NotYAML(t *testing.T) {
	errs := ValidateSchema([]byte("name: [unclosed"))
	require.Len(t, errs, 1)
	assert.Equal(t, "document", errs[0].Field)
	assert.Contains(t, errs[0].Message, "invalid YAML")
}
