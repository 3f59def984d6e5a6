package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/rulesort/internal/compiler"
)

// ErrTargetUnsupported is matched by errors.Is when no registered target
// compiler supports a (target, mode) pair.
var ErrTargetUnsupported = errors.New("target unsupported")

// DispatchError represents a failure to turn a rule into a runnable
// executor for a target.
//
// Dispatch errors include:
//   - Target unsupported: no registered target compiler accepts the target
//   - Compile failed: the rule does not parse or uses an unknown operator
//
// DispatchError wraps the underlying cause, so errors.Is/errors.As reach
// compiler.ErrNotSupported, *compiler.OperatorNotFoundError or
// *rule.SyntaxError through it.
type DispatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Rule is the rule text being dispatched.
	Rule string

	// Target is the Go type of the target.
	Target string

	// Mode is the requested operation.
	Mode compiler.Mode

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	// ErrCodeTargetUnsupported indicates no target compiler accepts the target.
	ErrCodeTargetUnsupported ErrorCode = "TARGET_UNSUPPORTED"

	// ErrCodeCompileFailed indicates the rule could not be compiled.
	ErrCodeCompileFailed ErrorCode = "COMPILE_FAILED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s %s on %s: %v", e.Code, e.Mode, e.Rule, e.Target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error { return e.Err }

// IsTargetUnsupported returns true if the error is a target-unsupported
// error. Uses errors.Is to handle wrapped errors.
func IsTargetUnsupported(err error) bool {
	return errors.Is(err, ErrTargetUnsupported)
}

// IsCompileError returns true if the error is a compile failure.
// Uses errors.As to handle wrapped errors.
func IsCompileError(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeCompileFailed
	}
	return false
}

func newTargetUnsupported(rule string, target any, mode compiler.Mode) *DispatchError {
	return &DispatchError{
		Code:   ErrCodeTargetUnsupported,
		Rule:   rule,
		Target: fmt.Sprintf("%T", target),
		Mode:   mode,
		Err:    ErrTargetUnsupported,
	}
}

func newCompileFailed(rule string, target any, mode compiler.Mode, err error) *DispatchError {
	return &DispatchError{
		Code:   ErrCodeCompileFailed,
		Rule:   rule,
		Target: fmt.Sprintf("%T", target),
		Mode:   mode,
		Err:    err,
	}
}
