package scenario

// Scenario is one YAML scenario file.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Debounce overrides the coordinator debounce window ("250ms", "0").
	// A bare integer is milliseconds. Empty uses the default.
	Debounce string `yaml:"debounce,omitempty"`

	// Steps run in order against one coordinator.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpAddGroup       = "add_group"
	OpAttach         = "attach"
	OpDetach         = "detach"
	OpReset          = "reset"
	OpTrigger        = "trigger"
	OpTriggerSimilar = "trigger_similar"
	OpAdvance        = "advance"
)

// Ops lists every step operation, in documentation order.
var Ops = []string{OpAddGroup, OpAttach, OpDetach, OpReset, OpTrigger, OpTriggerSimilar, OpAdvance}

// Step is one coordinator operation.
type Step struct {
	Op string `yaml:"op"`

	// Group names the target group. trigger_similar may use GroupPattern
	// (a regular expression) instead.
	Group        string `yaml:"group,omitempty"`
	GroupPattern string `yaml:"group_pattern,omitempty"`

	// ID names the member. trigger_similar may use IDPattern instead.
	ID        string `yaml:"id,omitempty"`
	IDPattern string `yaml:"id_pattern,omitempty"`

	// Data is passed to Trigger and on to callbacks.
	Data any `yaml:"data,omitempty"`

	// Callback is the label attached by an attach step.
	Callback string `yaml:"callback,omitempty"`

	// Remove and Reset set the policy of an attach step.
	Remove bool `yaml:"remove,omitempty"`
	Reset  bool `yaml:"reset,omitempty"`

	// Duration is how far an advance step moves the clock.
	Duration string `yaml:"duration,omitempty"`

	// Expect checks the step's immediate effect.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect checks one step.
type Expect struct {
	// Result is the expected boolean return (trigger, trigger_similar, detach).
	Result *bool `yaml:"result,omitempty"`

	// Fired is the exact sequence of callback labels run by this step.
	// An explicit empty list asserts nothing fired.
	Fired []string `yaml:"fired,omitempty"`
}

// Assertion types.
const (
	AssertFiredCount  = "fired_count"
	AssertFiredOrder  = "fired_order"
	AssertOutstanding = "outstanding"
	AssertAttached    = "attached"
	AssertCount       = "count"
	AssertMembers     = "members"
)

// AssertionTypes lists every assertion type.
var AssertionTypes = []string{AssertFiredCount, AssertFiredOrder, AssertOutstanding, AssertAttached, AssertCount, AssertMembers}

// Assertion validates the final state of a run.
type Assertion struct {
	// Type selects the check:
	// - "fired_count": Callback ran exactly Count times
	// - "fired_order": the full call log equals Callbacks
	// - "outstanding": HasOutstanding(Group) == Value
	// - "attached": IsAttached(Group) == Value
	// - "count": Count() == Count
	// - "members": Members(Group) equals Members
	Type string `yaml:"type"`

	Callback  string          `yaml:"callback,omitempty"`
	Callbacks []string        `yaml:"callbacks,omitempty"`
	Group     string          `yaml:"group,omitempty"`
	Count     *int            `yaml:"count,omitempty"`
	Value     *bool           `yaml:"value,omitempty"`
	Members   map[string]bool `yaml:"members,omitempty"`
}
