// Package message defines the handoff message and its on-disk codec.
//
// A message file is a YAML header fenced by "---" lines, followed by an
// optional free-text body:
//
//	---
//	id: "2025-07-01T14:32:10Z"
//	from: cc
//	for: jules
//	action: add_file
//	payload:
//	  path: out.txt
//	  contents: hi
//	---
//
//	body text
package message

import (
	"fmt"
	"strings"
	"time"
)

// ResponseSuffix is appended to an action name to form the action of its reply
const ResponseSuffix = "_response"

// Message is a single work request or reply exchanged through a mailbox.
type Message struct {
	// ID is an RFC-3339 timestamp; it doubles as the idempotency key
	ID string
	// From identifies the sender
	From string
	// For identifies the recipient
	For string
	// Action selects the handler that processes Payload
	Action string
	// Payload is the structured argument block. Nested values are allowed.
	Payload map[string]any
	// Body is optional free text following the header
	Body string
}

// Time parses the message ID as an RFC-3339 timestamp.
func (m Message) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, m.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("id %q is not an RFC-3339 timestamp: %w", m.ID, err)
	}
	return t, nil
}

// IsReply reports whether the message answers an earlier action.
func (m Message) IsReply() bool {
	return strings.HasSuffix(m.Action, ResponseSuffix)
}

// ReplyAction returns the action name used for replies to action.
func ReplyAction(action string) string {
	return action + ResponseSuffix
}

// NewID formats t as a message ID. Sub-second precision is kept so that
// messages produced within the same second stay distinct.
func NewID(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FileKey turns an ID into a string usable in file names on every platform.
func FileKey(id string) string {
	return strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(id)
}
