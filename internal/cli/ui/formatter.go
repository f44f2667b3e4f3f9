package ui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/poller"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatPretty represents human-readable output format
	FormatPretty OutputFormat = "pretty"
	// FormatJSON represents JSON output format
	FormatJSON OutputFormat = "json"
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "pretty", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter is the interface for output formatting
type Formatter interface {
	// Output formats and displays any data
	Output(data interface{}) error

	// OutputError formats and displays an error
	OutputError(err error) error

	// IsJSON returns true if this formatter outputs JSON
	IsJSON() bool
}

// prettyFormatter implements Formatter for human-readable output
type prettyFormatter struct {
	out    io.Writer
	errOut io.Writer
}

// NewPrettyFormatter creates a new pretty formatter writing to Stdout
func NewPrettyFormatter() Formatter {
	return &prettyFormatter{out: Stdout, errOut: Stderr}
}

// Output renders mailbox values with the listing printers; strings are
// expected to be formatted already.
func (f *prettyFormatter) Output(data interface{}) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprint(f.out, v)
		return err
	case poller.Summary:
		PrintSummary(v)
		return nil
	case []mailbox.ArchiveEntry:
		PrintArchiveList(v)
		return nil
	case []mailbox.Rejection:
		PrintRejectedList(v)
		return nil
	}

	_, err := fmt.Fprintln(f.out, data)
	return err
}

func (f *prettyFormatter) OutputError(err error) error {
	_, werr := fmt.Fprintf(f.errOut, "%s %s\n", ErrorIcon, ErrorStyle.Render(err.Error()))
	return werr
}

func (f *prettyFormatter) IsJSON() bool {
	return false
}

// jsonFormatter implements Formatter for JSON output
type jsonFormatter struct {
	encoder *json.Encoder
	errOut  io.Writer
}

// NewJSONFormatter creates a new JSON formatter writing to Stdout
func NewJSONFormatter() Formatter {
	return NewJSONFormatterTo(Stdout)
}

// NewJSONFormatterTo creates a JSON formatter writing to w
func NewJSONFormatterTo(w io.Writer) Formatter {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &jsonFormatter{encoder: encoder, errOut: Stderr}
}

func (f *jsonFormatter) Output(data interface{}) error {
	return f.encoder.Encode(data)
}

func (f *jsonFormatter) OutputError(err error) error {
	// Errors stay plain text on stderr so stdout remains valid JSON
	_, werr := fmt.Fprintf(f.errOut, "Error: %v\n", err)
	return werr
}

func (f *jsonFormatter) IsJSON() bool {
	return true
}

// GlobalFormatter is the global formatter instance
var GlobalFormatter Formatter = NewPrettyFormatter()

// SetGlobalFormatter sets the global formatter
func SetGlobalFormatter(format OutputFormat) error {
	switch format {
	case FormatPretty:
		GlobalFormatter = NewPrettyFormatter()
	case FormatJSON:
		GlobalFormatter = NewJSONFormatter()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

// WithFormatter temporarily sets a formatter for a function execution
func WithFormatter(format OutputFormat, fn func() error) error {
	oldFormatter := GlobalFormatter
	defer func() { GlobalFormatter = oldFormatter }()

	if err := SetGlobalFormatter(format); err != nil {
		return err
	}

	return fn()
}
