package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/native"
	"github.com/roach88/rulesort/internal/optimizer"
	"github.com/roach88/rulesort/internal/refine"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rule or query failure (unknown operator, unsupported target, etc.)
	ExitCommandError = 2 // Command error (bad flags, unreadable input, bad config, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeInput       = "E002" // Unreadable or malformed input
	ErrCodeConfig      = "E003" // Configuration load failed
	ErrCodeDatabase    = "E004" // Database open failed
	ErrCodeRule        = "E101" // Rule syntax, unknown operator or parameter collision
	ErrCodeUnsupported = "E102" // No target or operation for the input
	ErrCodeQuery       = "E103" // Query execution failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
// Text output renders structured data as YAML.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
	TraceID string
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // optional trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: f.TraceID,
		})
	}

	if s, ok := data.(string); ok {
		_, err := fmt.Fprintln(f.Writer, s)
		return err
	}
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: f.TraceID,
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// fail reports err and returns it wrapped with exit.
func (f *OutputFormatter) fail(code string, exit int, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// failRefine reports an error from the refinement pipeline with the code
// matching its kind.
func (f *OutputFormatter) failRefine(err error) error {
	var syntaxErr *rule.SyntaxError
	var overridden *spec.ParameterOverriddenError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &overridden),
		compiler.IsOperatorNotFound(err), engine.IsCompileError(err):
		return f.fail(ErrCodeRule, ExitFailure, err)
	case engine.IsTargetUnsupported(err),
		errors.Is(err, compiler.ErrNotSupported),
		errors.Is(err, native.ErrUnhandledResultType),
		errors.Is(err, optimizer.ErrUnsupportedResult),
		errors.Is(err, refine.ErrAlreadyOptimized):
		return f.fail(ErrCodeUnsupported, ExitFailure, err)
	}
	return f.fail(ErrCodeQuery, ExitFailure, err)
}
