package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/joinery/internal/coord"
)

// Recorder journals coordinator activity. It implements coord.Observer.
//
// Observer methods cannot return errors, so write failures are logged and
// the first one is kept for Err. Recording never affects the coordinator.
//
// Rows take the coordinator's evaluation seq, so reading a run back in seq
// order reproduces the order in which the coordinator decided each signal,
// even when concurrent Triggers notify the recorder out of order. Values
// without a seq (hand-built, Seq 0) are numbered after the highest seq seen.
//
// Thread-safety: safe for concurrent use. Writes are serialized.
type Recorder struct {
	store  *Store
	ctx    context.Context
	runID  string
	ids    IDGenerator
	logger *slog.Logger

	mu  sync.Mutex
	seq int64
	err error
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) RecorderOption {
	return func(r *Recorder) {
		r.runID = id
	}
}

// WithIDGenerator sets the generator for run and firing ids.
// Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithRecorderLogger sets the logger for write failures.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder registers a new run labeled label and returns its recorder.
// started is the run's start time, normally the coordinator clock's Now().
func NewRecorder(ctx context.Context, s *Store, label string, started time.Time, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		store:  s,
		ctx:    ctx,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = r.ids.Generate()
	}

	if err := s.WriteRun(ctx, Run{ID: r.runID, Label: label, Started: started}); err != nil {
		return nil, err
	}
	return r, nil
}

// RunID returns the id of the run this recorder writes to.
func (r *Recorder) RunID() string {
	return r.runID
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Signaled implements coord.Observer.
func (r *Recorder) Signaled(sig coord.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := SignalRecord{
		RunID:   r.runID,
		Seq:     r.nextSeqLocked(sig.Seq),
		Group:   sig.Group,
		ID:      sig.ID,
		Outcome: string(sig.Outcome),
		Data:    r.encodeLocked(sig.Group, sig.Data),
		At:      sig.At,
	}
	if err := r.store.WriteSignal(r.ctx, rec); err != nil {
		r.failLocked(err)
	}
}

// Fired implements coord.Observer.
func (r *Recorder) Fired(f coord.Firing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := FiringRecord{
		ID:        r.ids.Generate(),
		RunID:     r.runID,
		Seq:       r.nextSeqLocked(f.Seq),
		Group:     f.Group,
		MemberID:  f.ID,
		Callbacks: f.Callbacks,
		Policy:    f.Policy.String(),
		Data:      r.encodeLocked(f.Group, f.Data),
		At:        f.At,
	}
	if err := r.store.WriteFiring(r.ctx, rec); err != nil {
		r.failLocked(err)
	}
}

// nextSeqLocked returns seq, or the next free number when seq is 0, and
// tracks the highest seq written.
func (r *Recorder) nextSeqLocked(seq int64) int64 {
	if seq == 0 {
		seq = r.seq + 1
	}
	r.seq = max(r.seq, seq)
	return seq
}

// encodeLocked encodes data, recording the row without data on failure.
func (r *Recorder) encodeLocked(group string, data any) string {
	s, err := EncodeData(data)
	if err != nil {
		r.logger.Warn("journal data not encodable", "group", group, "error", err)
		return ""
	}
	return s
}

func (r *Recorder) failLocked(err error) {
	r.logger.Error("journal write failed", "run_id", r.runID, "seq", r.seq, "error", err)
	if r.err == nil {
		r.err = err
	}
}

var _ coord.Observer = (*Recorder)(nil)
