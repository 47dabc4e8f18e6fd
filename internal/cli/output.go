package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario expectations not met
	ExitCommandError = 2 // Unreadable or invalid input
)

// ExitError carries the process exit code for a failed command.
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

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

type formatter struct {
	format string
	w      io.Writer
}

// result writes data as JSON, or calls text to render it for humans.
func (f formatter) result(data any, text func(w io.Writer)) error {
	if f.format == "json" {
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	text(f.w)
	return nil
}

// fail reports err in the configured format and returns it with an
// exit code attached.
func (f formatter) fail(code int, message string, err error) error {
	if f.format == "json" {
		_ = json.NewEncoder(f.w).Encode(Response{Status: "error", Error: fmt.Sprintf("%s: %v", message, err)})
	}
	return WrapExitError(code, message, err)
}
