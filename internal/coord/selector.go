package coord

import (
	"regexp"
)

// Selector picks group names or member ids for TriggerSimilar.
//
// A Selector is either a literal name or a compiled pattern. The mode is
// explicit, so a literal name that happens to look like a pattern (for
// example "/^grp_/") is still matched literally.
type Selector struct {
	literal string
	pattern *regexp.Regexp
}

// Literal selects exactly one name.
func Literal(name string) Selector {
	return Selector{literal: name}
}

// Pattern selects every candidate matched by re.
// A nil re behaves like Literal("").
func Pattern(re *regexp.Regexp) Selector {
	return Selector{pattern: re}
}

// MustPattern compiles expr and panics if it is invalid.
func MustPattern(expr string) Selector {
	return Pattern(regexp.MustCompile(expr))
}

// IsPattern reports whether the selector matches by regular expression.
func (s Selector) IsPattern() bool {
	return s.pattern != nil
}

// String returns the literal name or the pattern source.
func (s Selector) String() string {
	if s.pattern != nil {
		return "/" + s.pattern.String() + "/"
	}
	return s.literal
}

// expand returns the subset of candidates selected by s. A literal
// selector always yields itself, whether or not it is a candidate.
func (s Selector) expand(candidates []string) []string {
	if s.pattern == nil {
		return []string{s.literal}
	}

	var out []string
	for _, c := range candidates {
		if s.pattern.MatchString(c) {
			out = append(out, c)
		}
	}
	return out
}

// target is one (group, id) pair produced by selector expansion.
type target struct {
	group string
	id    string
}

// TriggerSimilar calls Trigger once for every (group, id) pair selected by
// groups and ids and returns the logical OR of the results.
//
// A pattern group selector is matched against every known group name
// (declared or attached). A pattern id selector is matched against the
// declared members of each candidate group, so a group without members
// yields no pairs for it. Candidates are expanded in sorted order before any
// Trigger runs, so callbacks that mutate the coordinator do not change the
// set of pairs.
func (c *Coordinator) TriggerSimilar(groups, ids Selector, data any) bool {
	c.mu.Lock()
	var targets []target
	for _, g := range groups.expand(c.groupNamesLocked()) {
		for _, id := range ids.expand(c.memberIDsLocked(g)) {
			targets = append(targets, target{group: g, id: id})
		}
	}
	c.mu.Unlock()

	c.logger.Debug("trigger similar expanded",
		"group_selector", groups.String(),
		"id_selector", ids.String(),
		"targets", len(targets),
	)

	fired := false
	for _, t := range targets {
		if c.Trigger(t.group, t.id, data) {
			fired = true
		}
	}
	return fired
}
