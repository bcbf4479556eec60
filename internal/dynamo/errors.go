package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the analysis pipeline.
var (
	// ErrDegenerateSystem indicates a transfer function whose denominator is
	// identically zero, e.g. a feedback loop with N(s) + D(s) = 0.
	ErrDegenerateSystem = errors.New("dynamo: degenerate system (zero denominator)")

	// ErrInvalidGrid indicates a time grid that is too short, unordered, or
	// starts before zero.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrImproperSystem indicates a numerator of higher degree than the
	// denominator.
	ErrImproperSystem = errors.New("dynamo: improper system (numerator degree exceeds denominator degree)")

	// ErrInvalidSetpoint indicates a zero or non-finite setpoint.
	ErrInvalidSetpoint = errors.New("dynamo: invalid setpoint")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates sequences that should pair up but differ in length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// GridError reports why a time grid was rejected.
type GridError struct {
	Index  int
	Time   float64
	Reason string
}

func (e *GridError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidGrid, e.Reason)
	}
	return fmt.Sprintf("%v: %s at index %d (t=%g)", ErrInvalidGrid, e.Reason, e.Index, e.Time)
}

func (e *GridError) Unwrap() error {
	return ErrInvalidGrid
}
