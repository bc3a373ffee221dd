package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ffigen/internal/marshal"
	"ffigen/internal/metadata"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Descriptor rejected
	ExitCommandError = 2 // Command error (unreadable input, unwritable output, etc.)
)

// Error codes reported in JSON output.
const (
	ErrCodeGeneric    = "E000"
	ErrCodeLoad       = "E001"
	ErrCodeDescriptor = "E002"
	ErrCodeMarshal    = "E003"
	ErrCodeOutput     = "E004"
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
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail reports err in the configured format and returns the error the
// command exits with.
func (f *OutputFormatter) Fail(err error) error {
	code, location := classify(err)
	exitCode := ExitFailure
	if code == ErrCodeLoad || code == ErrCodeOutput || code == ErrCodeGeneric {
		exitCode = ExitCommandError
	}

	if f.Format == "json" {
		encodeErr := json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error(), Location: location},
		})
		if encodeErr != nil {
			return encodeErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, err)
	}

	return WrapExitError(exitCode, "ffigen failed", err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

type outputError struct {
	path string
	err  error
}

func (e *outputError) Error() string {
	return fmt.Sprintf("%s: %v", e.path, e.err)
}

func (e *outputError) Unwrap() error {
	return e.err
}

func classify(err error) (code string, location string) {
	var (
		loadErr       *metadata.LoadError
		descriptorErr *metadata.DescriptorError
		outErr        *outputError
	)

	switch {
	case errors.As(err, &loadErr):
		if loadErr.Pos.IsValid() {
			location = loadErr.Pos.String()
		}
		return ErrCodeLoad, location
	case errors.As(err, &descriptorErr):
		location = descriptorErr.Type
		if descriptorErr.Method != "" {
			location += "." + descriptorErr.Method
		}
		if isMarshalError(err) {
			return ErrCodeMarshal, location
		}
		return ErrCodeDescriptor, location
	case errors.As(err, &outErr):
		return ErrCodeOutput, outErr.path
	}
	return ErrCodeGeneric, ""
}

func isMarshalError(err error) bool {
	var (
		unresolved *marshal.UnresolvedTypeError
		category   *marshal.CategoryError
		override   *marshal.OverrideError
	)
	return errors.As(err, &unresolved) || errors.As(err, &category) || errors.As(err, &override)
}
