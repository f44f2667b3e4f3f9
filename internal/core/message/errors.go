package message

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader matches any DecodeError of kind KindMalformedHeader
	ErrMalformedHeader = errors.New("malformed header")
	// ErrMissingField matches any DecodeError of kind KindMissingField
	ErrMissingField = errors.New("missing field")
	// ErrIncomplete is returned by Encode for messages lacking a core field
	ErrIncomplete = errors.New("message is missing a required field")
)

// DecodeKind classifies decode failures
type DecodeKind string

const (
	// KindMalformedHeader means the header is absent, unterminated or not a mapping
	KindMalformedHeader DecodeKind = "MalformedHeader"
	// KindMissingField means one of id, from, for, action is absent or empty
	KindMissingField DecodeKind = "MissingField"
)

// DecodeError reports why raw mailbox content could not be turned into a Message.
type DecodeError struct {
	Kind   DecodeKind
	Field  string
	Reason string
	Err    error
}

// ReasonCode returns the compact form used in rejection records, e.g. MissingField(from).
func (e *DecodeError) ReasonCode() string {
	if e.Field != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Field)
	}
	return string(e.Kind)
}

func (e *DecodeError) Error() string {
	msg := e.ReasonCode()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match DecodeErrors against the kind sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMalformedHeader:
		return e.Kind == KindMalformedHeader
	case ErrMissingField:
		return e.Kind == KindMissingField
	}
	return false
}

func malformed(field, reason string, err error) *DecodeError {
	return &DecodeError{Kind: KindMalformedHeader, Field: field, Reason: reason, Err: err}
}

func missing(field string) *DecodeError {
	return &DecodeError{Kind: KindMissingField, Field: field}
}
