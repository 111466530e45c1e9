// Package apperr defines the application error type used across dtrsim to
// report the fatal conditions described in spec §7: malformed DAGs,
// residency violations, thrashing, and invalid store targets. None of
// these is recovered locally — each indicates a bug in upstream lowering,
// a capacity budget set too small, or a DAG the core does not support — so
// the type exists to let callers classify a failure (via Code, with
// errors.Is) rather than to enable retry logic.
//
// Grounded on junjiewwang-perf-analysis/pkg/errors.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	// CodeMalformedDAG covers unsupported node kinds, analysis data of the
	// wrong variant, and empty child lists at a call site (spec §4.D, §7).
	CodeMalformedDAG Code = "MALFORMED_DAG"
	// CodeResidencyViolation covers get/store on an absent tensor, a
	// double-put, and OOM on SRAM (spec §4.A, §7).
	CodeResidencyViolation Code = "RESIDENCY_VIOLATION"
	// CodeThrashing covers evict_single finding no evictable victim under
	// the current pin/exclude set (spec §4.E, §7).
	CodeThrashing Code = "THRASHING"
	// CodeInvalidStoreTarget covers a Store instruction whose region is
	// "host" (spec §4.E, §7).
	CodeInvalidStoreTarget Code = "INVALID_STORE_TARGET"
)

// Error is the application error type. ID carries the offending node or
// tensor ID for diagnosis, formatted generically (string) so apperr does
// not need to depend on tensorid.
type Error struct {
	Code    Code
	Message string
	ID      string // offending node/tensor ID, if any; empty otherwise
	Err     error
}

func (e *Error) Error() string {
	if e.ID != "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s (id=%s): %v", e.Code, e.Message, e.ID, e.Err)
		}
		return fmt.Sprintf("[%s] %s (id=%s)", e.Code, e.Message, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Code, so callers
// can do errors.Is(err, apperr.New(apperr.CodeThrashing, "", "")) without
// caring about message or ID.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New builds an Error with no wrapped cause.
func New(code Code, id, message string) *Error {
	return &Error{Code: code, ID: id, Message: message}
}

// Wrap builds an Error that wraps an existing error.
func Wrap(code Code, id, message string, err error) *Error {
	return &Error{Code: code, ID: id, Message: message, Err: err}
}
