// Package store provides the SQLite-backed diagnostic journal.
//
// The journal is an append-only record of what a coordinator did:
//   - Runs: one row per recorder session
//   - Signals: every Trigger evaluation and its outcome
//   - Firings: every satisfied barrier, with the policy that was applied
//
// It is history only. Coordinator state is never restored from it.
//
// # Ordering
//
// Signals and firings of one run share a logical seq stamped by the
// Recorder, so a run's timeline is ORDER BY seq. Across runs, queries order
// by run start time, then run id, then seq.
//
// # Payload Data
//
// Signal data is stored as canonical JSON (package canon) when possible and
// plain encoding/json otherwise. Nil data is stored as NULL.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Open(":memory:") gives a private in-memory journal for tests and
// one-off scenario runs.
package store
