package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/astralhq/astral/internal/model"
)

// Stable error codes surfaced to callers. Every failure carries one.
const (
	CodeValidation  = "validation_error"
	CodeCalculation = "calculation_error"
	CodeCompose     = "compose_error"
	CodeCancelled   = "cancelled"
	CodeTimeout     = "timeout"
	CodePersistence = "persistence_error"
	CodeInternal    = "internal_error"
)

// ValidationError reports bad input. User-correctable, never retried
// automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CalculationError wraps an upstream ephemeris failure. Callers may retry.
type CalculationError struct {
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("ephemeris calculation failed: %v", e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// ComposeError reports an internal content-synthesis or formatting failure.
type ComposeError struct {
	Err error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("content synthesis failed: %v", e.Err)
}

func (e *ComposeError) Unwrap() error { return e.Err }

// CancelledError marks a user-initiated termination. Terminal, not an
// application fault.
type CancelledError struct {
	Stage model.Stage
	Err   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("generation cancelled during %s: %v", e.Stage, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// TimeoutError converts a stuck batch item into a per-item failure without
// aborting siblings.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.After)
}

// PersistenceError wraps a failed best-effort save. It is logged as a
// warning and never fails the generation; the type exists so log consumers
// and tests can distinguish it.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting report failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CodeOf maps any pipeline error to its stable code.
func CodeOf(err error) string {
	var (
		ve *ValidationError
		ca *CalculationError
		co *ComposeError
		cc *CancelledError
		te *TimeoutError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &ca):
		return CodeCalculation
	case errors.As(err, &co):
		return CodeCompose
	case errors.As(err, &cc):
		return CodeCancelled
	case errors.As(err, &te):
		return CodeTimeout
	case errors.As(err, &pe):
		return CodePersistence
	}
	return CodeInternal
}
