package plan

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a solver invocation did not produce a candidate set.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindTimedOut     ErrorKind = "timed_out"
	KindAbnormalExit ErrorKind = "abnormal_exit"
	KindParseFailure ErrorKind = "parse_failure"
	KindFilesystem   ErrorKind = "filesystem"
	KindInternal     ErrorKind = "internal"
)

// Sentinels for errors.Is matching against a *SolverError's kind.
var (
	ErrNotFound     = errors.New("solver binary not found")
	ErrTimedOut     = errors.New("solver timed out")
	ErrAbnormalExit = errors.New("solver exited abnormally")
	ErrParseFailure = errors.New("solver output could not be parsed")
	ErrFilesystem   = errors.New("staging area error")
	ErrInternal     = errors.New("internal solver error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindTimedOut:
		return ErrTimedOut
	case KindAbnormalExit:
		return ErrAbnormalExit
	case KindParseFailure:
		return ErrParseFailure
	case KindFilesystem:
		return ErrFilesystem
	default:
		return ErrInternal
	}
}

// Valid reports whether k is one of the known kinds.
func (k ErrorKind) Valid() bool {
	switch k {
	case KindNotFound, KindTimedOut, KindAbnormalExit, KindParseFailure, KindFilesystem, KindInternal:
		return true
	}
	return false
}

// SolverError is the only error type a solver adapter returns.
type SolverError struct {
	Kind   ErrorKind
	Solver string
	Msg    string
	Err    error
}

// NewSolverError builds a SolverError. err may be nil.
func NewSolverError(kind ErrorKind, solver, msg string, err error) *SolverError {
	return &SolverError{Kind: kind, Solver: solver, Msg: msg, Err: err}
}

func (e *SolverError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Solver == "" {
		return msg
	}
	return e.Solver + ": " + msg
}

func (e *SolverError) Unwrap() error { return e.Err }

// Is matches the kind sentinel, so errors.Is(err, plan.ErrTimedOut) works.
func (e *SolverError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf extracts the ErrorKind from err. Errors that are not a *SolverError
// are classified as KindInternal.
func KindOf(err error) ErrorKind {
	var se *SolverError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
