package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRuns is returned by LatestRun on an empty journal.
var ErrNoRuns = errors.New("journal has no runs")

// ReadRuns returns every run, oldest first.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, started_ms
		FROM runs
		ORDER BY started_ms ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run     Run
			started int64
		)
		if err := rows.Scan(&run.ID, &run.Label, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started = fromMillis(started)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		run     Run
		started int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, started_ms
		FROM runs
		ORDER BY started_ms DESC, id COLLATE BINARY DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Label, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest run: %w", err)
	}
	run.Started = fromMillis(started)
	return run, nil
}

// ReadSignals returns signal records filtered by run and group.
// An empty filter value matches everything.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadSignals(ctx context.Context, runID, group string) ([]SignalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.run_id, s.seq, s.group_name, s.member_id, s.outcome, COALESCE(s.data, ''), s.at_ms
		FROM signals s
		JOIN runs r ON r.id = s.run_id
		WHERE (? = '' OR s.run_id = ?)
		  AND (? = '' OR s.group_name = ?)
		ORDER BY r.started_ms ASC, s.run_id COLLATE BINARY ASC, s.seq ASC
	`, runID, runID, group, group)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	records := []SignalRecord{}
	for rows.Next() {
		var (
			rec SignalRecord
			at  int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Group, &rec.ID, &rec.Outcome, &rec.Data, &at); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.At = fromMillis(at)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return records, nil
}

// ReadFirings returns firing records filtered by run and group.
// An empty filter value matches everything.
func (s *Store) ReadFirings(ctx context.Context, runID, group string) ([]FiringRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.run_id, f.seq, f.group_name, f.member_id, f.callbacks, f.policy, COALESCE(f.data, ''), f.at_ms
		FROM firings f
		JOIN runs r ON r.id = f.run_id
		WHERE (? = '' OR f.run_id = ?)
		  AND (? = '' OR f.group_name = ?)
		ORDER BY r.started_ms ASC, f.run_id COLLATE BINARY ASC, f.seq ASC
	`, runID, runID, group, group)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	records := []FiringRecord{}
	for rows.Next() {
		var (
			rec FiringRecord
			at  int64
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Seq, &rec.Group, &rec.MemberID, &rec.Callbacks, &rec.Policy, &rec.Data, &at); err != nil {
			return nil, fmt.Errorf("scan firing: %w", err)
		}
		rec.At = fromMillis(at)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return records, nil
}

// GroupStats counts signal outcomes for group across all runs.
// A group with no records returns zero counts, not an error.
func (s *Store) GroupStats(ctx context.Context, group string) (GroupStats, error) {
	stats := GroupStats{Group: group}

	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM signals
		WHERE group_name = ?
		GROUP BY outcome
	`, group)
	if err != nil {
		return stats, fmt.Errorf("query group stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return stats, fmt.Errorf("scan group stats: %w", err)
		}
		stats.Signals += n
		switch outcome {
		case "unattached":
			stats.Unattached = n
		case "debounced":
			stats.Debounced = n
		case "pending":
			stats.Pending = n
		case "fired":
			stats.Fired = n
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate group stats: %w", err)
	}

	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT MAX(at_ms) FROM firings WHERE group_name = ?
	`, group).Scan(&last); err != nil {
		return stats, fmt.Errorf("query last firing: %w", err)
	}
	if last.Valid {
		stats.LastFired = fromMillis(last.Int64)
	}

	return stats, nil
}
