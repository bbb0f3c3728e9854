package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/ownerchain/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // success, including an absent record
	ExitFailure      = 1 // a record operation failed or an import was partial
	ExitCommandError = 2 // bad flags, bad config, database cannot be opened
)

// ExitError carries the process exit code for a command error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode returns the record store code carried by err, "COMMAND_ERROR" for
// command errors, or "INTERNAL" otherwise.
func ErrorCode(err error) string {
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	if GetExitCode(err) == ExitCommandError {
		return "COMMAND_ERROR"
	}
	return "INTERNAL"
}

// ErrorDetails returns the record kind and entry hash attached to err, or
// nil when it carries neither.
func ErrorDetails(err error) map[string]string {
	var rerr *ir.Error
	if !errors.As(err, &rerr) {
		return nil
	}
	details := make(map[string]string)
	if rerr.Kind != "" {
		details["kind"] = string(rerr.Kind)
	}
	if rerr.Hash != "" {
		details["hash"] = string(rerr.Hash)
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a CLIResponse.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; Writer when nil
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data as an ok response, or prints it in text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Render writes data as an ok response in JSON mode and calls text
// otherwise. A nil text prints nothing.
func (f *OutputFormatter) Render(data any, text func(w io.Writer)) error {
	if f.isJSON() {
		return f.Success(data)
	}
	if text != nil {
		text(f.Writer)
	}
	return nil
}

// Error writes an error response. Text mode prints details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints to the diagnostic writer when verbose, so JSON on
// Writer stays intact.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}
