package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/poller"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      OutputFormat
		wantError bool
	}{
		{
			name:  "empty string defaults to pretty",
			input: "",
			want:  FormatPretty,
		},
		{
			name:  "pretty format",
			input: "pretty",
			want:  FormatPretty,
		},
		{
			name:  "json format",
			input: "json",
			want:  FormatJSON,
		},
		{
			name:      "invalid format",
			input:     "xml",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseFormat() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONFormatter_Output(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewJSONFormatterTo(&buf)

	testData := map[string]string{
		"name":    "test",
		"version": "1.0.0",
	}

	if err := formatter.Output(testData); err != nil {
		t.Fatalf("Output() error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if result["name"] != "test" || result["version"] != "1.0.0" {
		t.Errorf("Unexpected JSON output: %v", result)
	}
}

func TestJSONFormatter_OutputErrorGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	oldErr := Stderr
	Stderr = &errOut
	defer func() { Stderr = oldErr }()

	formatter := NewJSONFormatterTo(&out)
	if err := formatter.OutputError(errors.New("boom")); err != nil {
		t.Fatalf("OutputError() error = %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("stdout should stay empty, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Error: boom") {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
}

func TestPrettyFormatter_Output(t *testing.T) {
	var buf bytes.Buffer
	oldOut := Stdout
	Stdout = &buf
	defer func() { Stdout = oldOut }()

	formatter := NewPrettyFormatter()
	if err := formatter.Output("already formatted\n"); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if err := formatter.Output(42); err != nil {
		t.Fatalf("Output() error = %v", err)
	}

	if buf.String() != "already formatted\n42\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestPrettyFormatter_OutputMailboxValues(t *testing.T) {
	var buf bytes.Buffer
	oldOut := Stdout
	Stdout = &buf
	defer func() { Stdout = oldOut }()

	formatter := NewPrettyFormatter()
	if err := formatter.Output(poller.Summary{Idle: true}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if err := formatter.Output([]mailbox.Rejection{}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "No messages to process") {
		t.Errorf("summary not rendered: %q", out)
	}
	if !strings.Contains(out, "No rejected messages") {
		t.Errorf("rejections not rendered: %q", out)
	}
}

func TestJSONFormatter_IsJSON(t *testing.T) {
	jsonFormatter := NewJSONFormatter()
	if !jsonFormatter.IsJSON() {
		t.Error("JSONFormatter.IsJSON() should return true")
	}

	prettyFormatter := NewPrettyFormatter()
	if prettyFormatter.IsJSON() {
		t.Error("PrettyFormatter.IsJSON() should return false")
	}
}

func TestSetGlobalFormatter(t *testing.T) {
	// Save original formatter
	original := GlobalFormatter
	defer func() { GlobalFormatter = original }()

	// Test setting JSON formatter
	err := SetGlobalFormatter(FormatJSON)
	if err != nil {
		t.Fatalf("SetGlobalFormatter(FormatJSON) error = %v", err)
	}
	if !GlobalFormatter.IsJSON() {
		t.Error("GlobalFormatter should be JSON formatter")
	}

	// Test setting pretty formatter
	err = SetGlobalFormatter(FormatPretty)
	if err != nil {
		t.Fatalf("SetGlobalFormatter(FormatPretty) error = %v", err)
	}
	if GlobalFormatter.IsJSON() {
		t.Error("GlobalFormatter should be pretty formatter")
	}
}

func TestWithFormatter(t *testing.T) {
	// Save original formatter
	original := GlobalFormatter
	defer func() { GlobalFormatter = original }()

	// Set initial formatter to pretty
	GlobalFormatter = NewPrettyFormatter()

	// Use WithFormatter to temporarily switch to JSON
	executed := false
	err := WithFormatter(FormatJSON, func() error {
		executed = true
		if !GlobalFormatter.IsJSON() {
			t.Error("GlobalFormatter should be JSON within function")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithFormatter() error = %v", err)
	}

	if !executed {
		t.Error("Function was not executed")
	}

	// Verify formatter was restored
	if GlobalFormatter.IsJSON() {
		t.Error("GlobalFormatter should be restored to pretty formatter")
	}
}
