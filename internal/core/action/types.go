// Package action maps action names carried by messages to the handlers
// that execute them.
package action

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Kind is the closed set of handler variants. Extension actions registered
// by collaborators use KindCustom.
type Kind string

const (
	// KindAddFile creates a file inside the workspace
	KindAddFile Kind = "add_file"
	// KindRunTask acknowledges a task without running it
	KindRunTask Kind = "run_task"
	// KindMessage is pure communication
	KindMessage Kind = "message"
	// KindReply acknowledges a reply to an earlier action
	KindReply Kind = "reply"
	// KindCustom is any handler registered through the extension seam
	KindCustom Kind = "custom"
)

// FieldType is the expected type of a payload value
type FieldType string

const (
	// FieldString requires a string value
	FieldString FieldType = "string"
	// FieldBool requires a boolean value
	FieldBool FieldType = "bool"
	// FieldInt requires an integer value
	FieldInt FieldType = "int"
	// FieldMap requires a nested mapping
	FieldMap FieldType = "map"
	// FieldList requires a sequence
	FieldList FieldType = "list"
	// FieldAny accepts any value
	FieldAny FieldType = "any"
)

// Field declares one payload key a handler understands.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Matches reports whether v has the declared type.
func (f Field) Matches(v any) bool {
	switch f.Type {
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldBool:
		_, ok := v.(bool)
		return ok
	case FieldInt:
		switch v.(type) {
		case int, int64, uint64:
			return true
		}
		return false
	case FieldMap:
		_, ok := v.(map[string]any)
		return ok
	case FieldList:
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

// Request is what a handler receives.
type Request struct {
	// Action is the name the message was dispatched under
	Action string
	// From is the sender of the message
	From string
	// Payload is the message payload, already validated against Fields()
	Payload map[string]any
	// Body is the free-text body of the message
	Body string
}

// Outcome describes a successful execution. It becomes the payload of the reply.
type Outcome struct {
	Status  string
	Message string
	Details map[string]any
}

// Result is Ok(Outcome) or Failed(*Error).
type Result = fn.Result[Outcome]

// Handler executes one action.
type Handler interface {
	// Kind returns the variant this handler implements
	Kind() Kind
	// Fields declares the payload keys the handler reads
	Fields() []Field
	// Execute performs the side effect. Failures are returned as fn.Err
	// carrying an *Error.
	Execute(ctx context.Context, req Request) Result
}

// Ok wraps a successful outcome.
func Ok(status, format string, args ...any) Result {
	return fn.Ok(Outcome{Status: status, Message: fmt.Sprintf(format, args...)})
}

// Failed wraps a handler failure.
func Failed(code ErrorCode, format string, args ...any) Result {
	return fn.Err[Outcome](&Error{Code: code, Reason: fmt.Sprintf(format, args...)})
}
