package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/spec"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf, TraceID: "trace-1"}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeRule, "unknown operator", map[string]string{"rule": "x"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E101", resp.Error.Code)
	assert.Equal(t, "unknown operator", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success([]map[string]any{{"name": "ada", "age": 36}}))
	assert.Equal(t, "- age: 36\n  name: ada\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E001", "query failed", "ignored"))
	assert.Equal(t, "Error [E001]: query failed\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E001", "query failed", "shown"))
	assert.Contains(t, buf.String(), "Details: shown")
}

func TestFailRefine_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unknown operator", &compiler.OperatorNotFoundError{Operator: "soundex"}, ErrCodeRule},
		{"collision", &spec.ParameterOverriddenError{Names: []string{"a"}}, ErrCodeRule},
		{"not supported", fmt.Errorf("sort: %w", compiler.ErrNotSupported), ErrCodeUnsupported},
		{"target", engine.ErrTargetUnsupported, ErrCodeUnsupported},
		{"other", errors.New("disk full"), ErrCodeQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}
			err := formatter.failRefine(tt.err)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, ExitFailure, exitErr.Code)
			assert.Equal(t, tt.code, exitErr.Message)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "E002", errors.New("bad"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
