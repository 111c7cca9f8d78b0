package poverty

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks an invalid argument or an impossible state
	ErrPrecondition = errors.New("precondition violated")

	// ErrOutOfRange is returned by the binomial table outside [MinBinomialN, MaxBinomialN]
	ErrOutOfRange = fmt.Errorf("%w: value out of range", ErrPrecondition)

	// ErrDuplicateObservation is returned when a timeline already holds a status for a year
	ErrDuplicateObservation = fmt.Errorf("%w: duplicate observation", ErrPrecondition)

	// ErrPanelInvalid is returned when indices are requested from a panel with errors
	ErrPanelInvalid = fmt.Errorf("%w: panel data contain errors", ErrPrecondition)
)

// precondition returns an error wrapping ErrPrecondition when the condition does not hold
func precondition(condition bool, format string, args ...any) error {
	if condition {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
