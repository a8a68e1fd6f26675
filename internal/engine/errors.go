package engine

import (
	"errors"
	"fmt"

	"vprepair/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
)

// TransitionError is returned when a workflow operation does not apply to
// the report's current status. The report is left untouched.
type TransitionError struct {
	Op       string
	ReportID string
	From     domain.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s report %s in status %s", e.Op, e.ReportID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
