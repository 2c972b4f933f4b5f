// Package coord implements the joinery event coordinator.
//
// The coordinator is an in-process AND-join: independent operations declare
// themselves as members of a named group, and callbacks attached to that
// group fire once every declared member has signaled completion.
//
// ARCHITECTURE:
//
// Two maps share one namespace of group names:
//   - groups:  name -> member id -> completed flag
//   - entries: name -> ordered callbacks + post-fire policy + last fire time
//
// They are administratively independent. A registration may exist for a group
// with no declared members (it fires on the first Trigger), and a group may
// collect member flags without any registration (it never fires).
//
// Trigger Flow:
//  1. No registration for the group -> false
//  2. Fired less than the debounce window ago -> false, nothing marked
//  3. Group has declared members -> mark the member completed
//  4. Every declared member completed -> apply policy, run callbacks -> true
//  5. Otherwise -> false
//
// Policies:
//   - Keep:   flags stay set; later triggers re-fire once the debounce window passes
//   - Reset:  flags are cleared so the next round needs every member again
//   - Remove: registration and group are dropped (one-shot)
//
// Remove wins when both Remove and Reset are requested.
//
// CONCURRENCY:
//
// Every public method takes the coordinator mutex. The check, flip, re-check
// and fire decision inside Trigger happen under one critical section, so two
// concurrent signals can never both complete the same barrier. Callbacks and
// observers run after the lock is released, on the triggering goroutine, in
// registration order. They may call back into the coordinator.
//
// Unknown groups and undeclared members are never errors. Operations report
// absence through their documented zero values.
package coord
