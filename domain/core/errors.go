package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound          = errors.New("resource not found")
	ErrTransformNotFound = fmt.Errorf("%w: transform", ErrNotFound)
	ErrSummaryNotFound   = fmt.Errorf("%w: time-series summary", ErrNotFound)

	// Configuration errors
	ErrMissingColumn  = errors.New("required column missing")
	ErrTargetMissing  = fmt.Errorf("%w: target", ErrMissingColumn)
	ErrDateKeyMissing = fmt.Errorf("%w: date key", ErrMissingColumn)
	ErrOutcomeMissing = fmt.Errorf("%w: outcome", ErrMissingColumn)
	ErrFeatureMissing = fmt.Errorf("%w: fitted feature", ErrMissingColumn)

	// Data errors
	ErrIncompatibleType = errors.New("column type incompatible with operation")
	ErrNonBinaryOutcome = errors.New("outcome value is not 0 or 1")
	ErrInvalidTarget    = errors.New("target value cannot be coded")
	ErrInvalidDateKey   = errors.New("year/month cannot form a date")
	ErrLengthMismatch   = errors.New("input lengths differ")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMissingColumnError reports whether err was caused by an absent required column
func IsMissingColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}
