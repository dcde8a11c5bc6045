package replay

import (
	"errors"
	"fmt"
)

// Errors returned while loading or running a script.
var (
	// ErrInvalidStep indicates a step with no action or more than one.
	ErrInvalidStep = errors.New("invalid step")

	// ErrExpectation indicates an expect step that did not hold.
	ErrExpectation = errors.New("expectation failed")
)

// StepError reports the step a run stopped at.
type StepError struct {
	Index int    // zero-based step index
	Op    string // action name, e.g. "accept"
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExpectationError describes one field of an expect step that differed.
type ExpectationError struct {
	Field string
	Want  any
	Got   any
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("%s: want %v, got %v", e.Field, e.Want, e.Got)
}

// Is reports whether target is ErrExpectation.
func (e *ExpectationError) Is(target error) bool {
	return target == ErrExpectation
}
