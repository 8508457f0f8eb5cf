package socialforce

import (
	"errors"
	"fmt"
)

// Domain errors for crowd operations.
var (
	// ErrInvalidState indicates an agent or crowd that cannot be advanced.
	ErrInvalidState = errors.New("socialforce: invalid state")

	// ErrEmptyPath indicates an agent without waypoints.
	ErrEmptyPath = fmt.Errorf("%w: agent has no waypoints", ErrInvalidState)

	// ErrForeignAgent indicates an agent that was not created by the crowd it is added to.
	ErrForeignAgent = errors.New("socialforce: agent belongs to another crowd")

	// ErrDuplicateAgent indicates an agent that is already in, or was removed from, the crowd.
	ErrDuplicateAgent = errors.New("socialforce: agent already added or destroyed")

	// ErrInvalidTimestep indicates a negative or non-finite step duration.
	ErrInvalidTimestep = errors.New("socialforce: timestep must be finite and non-negative")

	// ErrUnknownParam indicates a parameter name SetParam does not recognise.
	ErrUnknownParam = errors.New("socialforce: unknown parameter")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("socialforce: parameter out of valid bounds")
)

// StepError wraps an error with the step it happened in.
type StepError struct {
	Step    int
	Time    float64
	AgentID int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) agent %d: %v", e.Step, e.Time, e.AgentID, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
