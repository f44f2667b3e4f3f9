package mcp

import (
	"errors"
	"strings"
	"testing"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

func TestErrorWithSuggestions(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantSuggest []string
	}{
		{
			name:        "mailbox busy",
			err:         MailboxBusyError("cc-to-jules", mailbox.ErrMailboxBusy),
			wantMessage: "mailbox cc-to-jules still holds an unprocessed message",
			wantSuggest: []string{
				"handoff_send with queue: true",
				"handoff_peek",
			},
		},
		{
			name:        "invalid parameter",
			err:         InvalidParameterError("to", "an agent identity"),
			wantMessage: "invalid to: expected an agent identity",
			wantSuggest: []string{
				"Check examples in the tool description",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantMessage) {
				t.Errorf("error message should contain %q, got %q", tt.wantMessage, errStr)
			}

			for _, suggest := range tt.wantSuggest {
				if !strings.Contains(errStr, suggest) {
					t.Errorf("error should suggest %q, but it's missing", suggest)
				}
			}

			if len(tt.wantSuggest) > 0 && !strings.Contains(errStr, "Did you mean to use one of these tools instead?") {
				t.Error("error with suggestions should include suggestion header")
			}
		})
	}
}

func TestMailboxBusyError_Unwrap(t *testing.T) {
	err := MailboxBusyError("cc-to-jules", mailbox.ErrMailboxBusy)
	if !errors.Is(err, mailbox.ErrMailboxBusy) {
		t.Error("busy error should wrap mailbox.ErrMailboxBusy")
	}
}

func TestNewErrorWithSuggestions(t *testing.T) {
	err := NewErrorWithSuggestions("custom error", "tool1", "tool2")
	errStr := err.Error()

	if !strings.Contains(errStr, "custom error") {
		t.Error("error should contain custom message")
	}
	if !strings.Contains(errStr, "tool1") {
		t.Error("error should contain tool1 suggestion")
	}
	if !strings.Contains(errStr, "tool2") {
		t.Error("error should contain tool2 suggestion")
	}
}

func TestErrorWithoutSuggestions(t *testing.T) {
	err := NewErrorWithSuggestions("simple error")
	if err.Error() != "simple error" {
		t.Errorf("error without suggestions should return simple message, got %q", err.Error())
	}
}
