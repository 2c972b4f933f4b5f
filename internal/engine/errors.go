package engine

import (
	"errors"
	"fmt"
)

// OpError reports an operation the loop refused to apply.
//
// The loop logs it and moves on to the next operation, so these errors only
// surface through logs and through Apply.
type OpError struct {
	// Code identifies the error category.
	Code OpErrorCode

	// Message is a human-readable description.
	Message string

	// Kind and Group identify the rejected operation.
	Kind  OpKind
	Group string

	// Seq is the logical position the operation would have taken.
	Seq int64
}

// OpErrorCode categorizes operation errors.
type OpErrorCode string

const (
	// ErrCodeUnknownOp indicates an Op with an unrecognized Kind.
	ErrCodeUnknownOp OpErrorCode = "UNKNOWN_OP"
)

// ErrStopped is returned when an operation is submitted to a stopped engine.
var ErrStopped = errors.New("engine stopped")

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s: %s (op=%s, group=%s)", e.Code, e.Message, e.Kind, e.Group)
	}
	return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Kind)
}

// IsOpError reports whether err wraps an OpError with the given code.
func IsOpError(err error, code OpErrorCode) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

func newOpError(code OpErrorCode, op Op, msg string) *OpError {
	return &OpError{
		Code:    code,
		Message: msg,
		Kind:    op.Kind,
		Group:   op.Group,
		Seq:     op.Seq,
	}
}
