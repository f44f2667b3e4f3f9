package mcp

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestions represents an error with tool suggestions
type ErrorWithSuggestions struct {
	Message     string
	Suggestions []string
	// Err is the underlying cause, if any
	Err error
}

// Error returns the error message with suggestions
func (e *ErrorWithSuggestions) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString(e.Message)
	sb.WriteString("\n\nDid you mean to use one of these tools instead?\n")
	for _, suggestion := range e.Suggestions {
		sb.WriteString("  - ")
		sb.WriteString(suggestion)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap returns the underlying cause
func (e *ErrorWithSuggestions) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestions creates a new error with tool suggestions
func NewErrorWithSuggestions(message string, suggestions ...string) error {
	return &ErrorWithSuggestions{
		Message:     message,
		Suggestions: suggestions,
	}
}

// MailboxBusyError returns an error with suggestions for when a mailbox slot is occupied
func MailboxBusyError(mailbox string, cause error) error {
	return &ErrorWithSuggestions{
		Message: fmt.Sprintf("mailbox %s still holds an unprocessed message", mailbox),
		Suggestions: []string{
			"handoff_send with queue: true - Queue the message until the mailbox is free",
			"handoff_peek - Inspect what is pending",
		},
		Err: cause,
	}
}

// InvalidParameterError returns an error with suggestions for invalid parameters
func InvalidParameterError(param string, expected string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("invalid %s: expected %s", param, expected),
		"Use the tool descriptions to understand parameter requirements",
		"Check examples in the tool description",
	)
}
