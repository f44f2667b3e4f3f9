package validator

import (
	"errors"
	"fmt"
)

// Kind classifies validation failures
type Kind string

const (
	// KindInvalidID means the id is not an RFC-3339 timestamp
	KindInvalidID Kind = "InvalidID"
	// KindStaleID means the id is not later than the last processed id
	KindStaleID Kind = "StaleID"
	// KindUnknownAction means no handler is registered for the action
	KindUnknownAction Kind = "UnknownAction"
	// KindInvalidPayload means a payload field is missing or has the wrong type
	KindInvalidPayload Kind = "InvalidPayload"
)

var (
	// ErrInvalidID matches ValidationErrors of kind KindInvalidID
	ErrInvalidID = errors.New("invalid id")
	// ErrStaleID matches ValidationErrors of kind KindStaleID
	ErrStaleID = errors.New("stale id")
	// ErrUnknownAction matches ValidationErrors of kind KindUnknownAction
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidPayload matches ValidationErrors of kind KindInvalidPayload
	ErrInvalidPayload = errors.New("invalid payload")
)

// ValidationError reports why a decoded message cannot be dispatched.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

// ReasonCode returns the compact form used in rejection records, e.g. InvalidPayload(path).
func (e *ValidationError) ReasonCode() string {
	if e.Field != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Field)
	}
	return string(e.Kind)
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.ReasonCode()
	}
	return e.ReasonCode() + ": " + e.Reason
}

// Is lets errors.Is match ValidationErrors against the kind sentinels.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidID:
		return e.Kind == KindInvalidID
	case ErrStaleID:
		return e.Kind == KindStaleID
	case ErrUnknownAction:
		return e.Kind == KindUnknownAction
	case ErrInvalidPayload:
		return e.Kind == KindInvalidPayload
	}
	return false
}
