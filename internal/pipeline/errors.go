package pipeline

import (
	"errors"
	"fmt"
)

// invalidResultMessage is the fixed diagnostic for a phase that returned a
// value outside the Result union.
const invalidResultMessage = "last phase did not return a valid result"

// NotFoundError is returned by Before and From (and the operations built on
// them) when the requested phase does not occur in the flattened pipeline.
type NotFoundError struct {
	Phase Ident
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find phase %s", e.Phase)
}

// IsNotFound returns true if the error is a missing-phase error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// PhaseFailure is returned by Run when a phase reports Fail. It is an
// expected termination path, not an engine defect.
type PhaseFailure struct {
	Phase   Ident
	Message string
	Trace   []Ident
}

func (e *PhaseFailure) Error() string {
	return fmt.Sprintf("phase %s failed: %s", e.Phase, e.Message)
}

// IsPhaseFailure returns true if the error is a phase-reported failure.
func IsPhaseFailure(err error) bool {
	var pf *PhaseFailure
	return errors.As(err, &pf)
}

// InvalidResultError is returned by Run when a phase returns a value outside
// the Result union. It indicates a misbehaving phase, distinct from a
// phase-reported failure.
type InvalidResultError struct {
	Phase Ident
	Trace []Ident
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("phase %s: %s", e.Phase, invalidResultMessage)
}

// UnknownPhaseError is returned by Run when a step names an ident with no
// registered phase.
type UnknownPhaseError struct {
	Phase Ident
	Trace []Ident
}

func (e *UnknownPhaseError) Error() string {
	return fmt.Sprintf("no phase registered for %s", e.Phase)
}
