package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected by a business rule, or an audit with findings
	ExitCommandError = 2 // Configuration, storage or usage error
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error.
// Errors without an explicit code exit with ExitFailure when a business rule rejected
// the operation and with ExitCommandError otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if shell.ClassifyError(err) == shell.StatusRejected {
		return ExitFailure
	}

	return ExitCommandError
}

// outputFormatter writes results as aligned text or as indented JSON.
type outputFormatter struct {
	format string
	writer io.Writer
}

func newOutputFormatter(opts *RootOptions, w io.Writer) *outputFormatter {
	return &outputFormatter{format: opts.Format, writer: w}
}

// print writes data as JSON, or calls text with a tabwriter that is flushed afterwards.
func (f *outputFormatter) print(data any, text func(w io.Writer)) error {
	if f.format == "json" {
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	}

	tw := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	text(tw)

	return tw.Flush()
}
