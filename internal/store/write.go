package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun registers a run. Duplicate ids are ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, started_ms)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Label, toMillis(run.Started))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSignal appends a signal record.
// The run must exist (foreign key constraint).
func (s *Store) WriteSignal(ctx context.Context, rec SignalRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals
		(run_id, seq, group_name, member_id, outcome, data, at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Seq,
		rec.Group,
		rec.ID,
		rec.Outcome,
		nullable(rec.Data),
		toMillis(rec.At),
	)
	if err != nil {
		return fmt.Errorf("write signal %s/%s: %w", rec.Group, rec.ID, err)
	}
	return nil
}

// WriteFiring appends a firing record. Duplicate firing ids are ignored.
func (s *Store) WriteFiring(ctx context.Context, rec FiringRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO firings
		(id, run_id, seq, group_name, member_id, callbacks, policy, data, at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.Seq,
		rec.Group,
		rec.MemberID,
		rec.Callbacks,
		rec.Policy,
		nullable(rec.Data),
		toMillis(rec.At),
	)
	if err != nil {
		return fmt.Errorf("write firing %s: %w", rec.Group, err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
