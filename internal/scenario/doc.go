// Package scenario runs declarative coordinator scenarios from YAML.
//
// A scenario is an ordered list of steps (declare members, attach
// callbacks, trigger, advance the clock, ...) followed by assertions on
// which callbacks fired and on the final coordinator state. Each run gets a
// fresh coordinator driven through an engine loop, a manual clock starting
// at testutil.Epoch and an in-memory journal, so a scenario always produces
// the same trace.
//
// Callbacks are named by label. Attaching label "cb1" registers a callback
// that records "cb1" and the trigger data in the run's call log; step
// expectations and assertions refer to those labels.
//
// Example:
//
//	name: upload
//	description: callback fires once both files are uploaded
//	steps:
//	  - {op: add_group, group: upload, id: file1}
//	  - {op: add_group, group: upload, id: file2}
//	  - {op: attach, group: upload, callback: cb}
//	  - {op: trigger, group: upload, id: file1, expect: {result: false, fired: []}}
//	  - {op: trigger, group: upload, id: file2, data: done, expect: {result: true, fired: [cb]}}
//	assertions:
//	  - {type: fired_count, callback: cb, count: 1}
//
// Validation happens in two layers: ValidateSchema checks structure against
// an embedded CUE schema, Validate checks meaning (labels exist, patterns
// compile) and suggests corrections for near-miss names.
package scenario
