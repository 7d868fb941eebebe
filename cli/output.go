package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Runtime failure (database, server)
	ExitCommandError = 2 // Invalid input (unit, instant, locale, flags)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// GetExitCode extracts the exit code from an error. Invalid caller input
// maps to ExitCommandError, anything else to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if heatmap.IsClientError(err) {
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data as JSON, or calls text for the text format.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Error writes err in the configured format.
func (f *OutputFormatter) Error(err error) {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: errorCode(err), Message: err.Error()},
		})
		return
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %v\n", errorCode(err), err)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, interval.ErrInvalidUnit):
		return "invalid_unit"
	case errors.Is(err, interval.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, interval.ErrInvalidLocale):
		return "invalid_locale"
	case errors.Is(err, interval.ErrInvalidTimezone):
		return "invalid_timezone"
	case errors.Is(err, interval.ErrInvalidInstant):
		return "invalid_instant"
	case errors.Is(err, heatmap.ErrInvalidOptions), errors.Is(err, heatmap.ErrTooManyCells):
		return "invalid_options"
	case GetExitCode(err) == ExitCommandError:
		return "usage"
	default:
		return "internal"
	}
}
