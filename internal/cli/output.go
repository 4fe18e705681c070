package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // module rejected
	ExitCommandError = 2 // bad arguments, unreadable files
)

// ExitError carries the exit code a command failure maps to.
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

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code for err, ExitFailure when err is not
// an ExitError.
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

// OutputFormatter renders reports as text, JSON or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) Report(rep inspect.Report) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(f.Writer, formatText(rep))
		return err
	}
}

// VerboseLog writes to ErrWriter when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose || f.ErrWriter == nil {
		return
	}
	fmt.Fprintf(f.ErrWriter, format+"\n", args...)
}

func formatText(rep inspect.Report) string {
	var b strings.Builder
	if h := rep.Header; h != nil {
		validity := "valid"
		if !h.MagicValid {
			validity = "invalid"
		}
		fmt.Fprintf(&b, "magic:            %s (%s)\n", h.Magic, validity)
		fmt.Fprintf(&b, "format version:   %d\n", h.FormatVersion)
		fmt.Fprintf(&b, "runtime version:  %s\n", h.RuntimeVersion)
		fmt.Fprintf(&b, "header size:      %s\n", humanize.Bytes(uint64(h.HeaderBytes)))
	}
	if rep.PayloadBytes > 0 {
		fmt.Fprintf(&b, "payload size:     %s\n", humanize.Bytes(uint64(rep.PayloadBytes)))
	}
	if len(rep.Packages) > 0 {
		fmt.Fprintf(&b, "packages:         %d\n", len(rep.Packages))
		for _, p := range rep.Packages {
			fmt.Fprintf(&b, "  - %s (%d rules)\n", p.Name, p.Rules)
		}
	}
	if rep.Strategy != "" || rep.Error != "" {
		status := "valid"
		if !rep.Valid {
			status = "rejected"
			if rep.Kind != "" {
				status += " (" + rep.Kind + ")"
			}
		}
		if rep.Strategy != "" {
			status += " [" + rep.Strategy + "]"
		}
		fmt.Fprintf(&b, "status:           %s\n", status)
	}
	if rep.Error != "" {
		fmt.Fprintf(&b, "error:            %s\n", rep.Error)
	}
	return b.String()
}
