package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrExpectationFailed indicates a playbook ran but some checks did not hold.
	ErrExpectationFailed = errors.New("expectation failed")

	// ErrSelfTestFailed indicates the reference scenario diverged.
	ErrSelfTestFailed = errors.New("self test failed")

	// ErrInitialization indicates the application could not be assembled.
	ErrInitialization = errors.New("initialization failed")
)

// OperationError records which operation failed and on what.
type OperationError struct {
	Op      string // e.g. "run", "play", "selftest"
	Target  string // e.g. a script path
	Context string
	Err     error
}

// NewOperationError creates an OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

// WithContext adds context to the error. Safe on a nil receiver.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExitCode maps an error to a process exit status:
// 0 for nil, 1 for failed expectations and 2 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrExpectationFailed), errors.Is(err, ErrSelfTestFailed):
		return 1
	default:
		return 2
	}
}
