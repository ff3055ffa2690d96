package workload

import (
	"errors"
	"fmt"
)

// Sentinel errors for script loading and execution.
var (
	// ErrInvalidScript indicates a script that cannot be run as written.
	ErrInvalidScript = errors.New("invalid script")

	// ErrUnknownOp indicates a step with an unrecognized op.
	ErrUnknownOp = errors.New("unknown op")

	// ErrDuplicateHandle indicates a create step reusing a live handle name.
	ErrDuplicateHandle = errors.New("handle already exists")

	// ErrUnexpectedResult indicates a step whose result differs from expect.
	ErrUnexpectedResult = errors.New("unexpected result")

	// ErrUnexpectedSuccess indicates a step that succeeded although it was
	// expected to fail.
	ErrUnexpectedSuccess = errors.New("expected failure")

	// ErrWrongFailure indicates a step that failed with a different category
	// than expected.
	ErrWrongFailure = errors.New("wrong failure category")

	// ErrNoFaultInjection indicates fail_next_alloc on an allocator that is
	// not instrumented.
	ErrNoFaultInjection = errors.New("allocator does not support fault injection")
)

// StepError reports the step at which a run stopped.
type StepError struct {
	// Step is the zero-based position of the step in the script.
	Step int

	// Op is the step's operation.
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *StepError) Unwrap() error {
	return e.Err
}
