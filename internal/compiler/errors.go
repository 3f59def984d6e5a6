package compiler

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned when an executor is asked for an operation its
// target cannot perform (filtering with a sort-only target, sorting in
// place on an in-memory collection, ...).
var ErrNotSupported = errors.New("not supported")

func notSupported(mode Mode) error {
	return fmt.Errorf("%s: %w", mode, ErrNotSupported)
}

// OperatorNotFoundError reports a rule referencing an operator the selected
// target compiler does not know.
type OperatorNotFoundError struct {
	Operator string
	Target   string
}

func (e *OperatorNotFoundError) Error() string {
	return fmt.Sprintf("operator %q does not exist for target %s", e.Operator, e.Target)
}

// IsOperatorNotFound returns true if err is or wraps an OperatorNotFoundError.
func IsOperatorNotFound(err error) bool {
	var opErr *OperatorNotFoundError
	return errors.As(err, &opErr)
}
