package engine

import (
	"fmt"

	"github.com/roach88/joinery/internal/coord"
)

// OpKind distinguishes coordinator operations.
type OpKind int

const (
	// OpDeclare declares Op.ID as a member of Op.Group.
	OpDeclare OpKind = iota + 1
	// OpSignal triggers Op.ID of Op.Group with Op.Data.
	OpSignal
	// OpSignalSimilar triggers every pair selected by Op.Groups and Op.IDs.
	OpSignalSimilar
	// OpAttach registers Op.Callback on Op.Group with Op.Policy.
	OpAttach
	// OpReset clears every member flag of Op.Group.
	OpReset
	// OpDetach removes Op.Group's registration and membership.
	OpDetach
)

// String returns the snake_case name used in logs.
func (k OpKind) String() string {
	switch k {
	case OpDeclare:
		return "declare"
	case OpSignal:
		return "signal"
	case OpSignalSimilar:
		return "signal_similar"
	case OpAttach:
		return "attach"
	case OpReset:
		return "reset"
	case OpDetach:
		return "detach"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one queued coordinator operation.
//
// Only the fields relevant to Kind are read. Reply, when set, receives the
// operation's boolean result exactly once: the trigger result for signals,
// the detach result for OpDetach, and true for the rest. It must be
// buffered or actively read, since the loop blocks sending on it.
type Op struct {
	Kind OpKind

	Group string
	ID    string
	Data  any

	Groups coord.Selector
	IDs    coord.Selector

	Callback coord.Callback
	Policy   coord.Policy

	Reply chan<- bool

	// Seq is assigned by the loop when the op is applied.
	Seq int64
}

// validate rejects unknown kinds. Names are not checked: the coordinator
// accepts any group name, including "".
func (op Op) validate() error {
	switch op.Kind {
	case OpDeclare, OpSignal, OpSignalSimilar, OpAttach, OpReset, OpDetach:
	default:
		return newOpError(ErrCodeUnknownOp, op, fmt.Sprintf("unknown op kind %d", int(op.Kind)))
	}
	return nil
}
