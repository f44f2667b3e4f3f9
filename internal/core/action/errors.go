package action

import (
	"errors"
	"fmt"
)

// ErrorCode classifies handler failures
type ErrorCode string

const (
	// CodeUnknownAction is returned when no handler is registered under the name
	CodeUnknownAction ErrorCode = "UnknownAction"
	// CodeInvalidPayload is returned when the payload does not fit the handler
	CodeInvalidPayload ErrorCode = "InvalidPayload"
	// CodePathConflict is returned when add_file would overwrite an existing file
	CodePathConflict ErrorCode = "PathConflict"
	// CodePathOutsideWorkspace is returned for absolute or escaping paths
	CodePathOutsideWorkspace ErrorCode = "PathOutsideWorkspace"
	// CodeIO is returned when a handler's filesystem side effect fails
	CodeIO ErrorCode = "IOError"
)

var (
	// ErrUnknownAction matches Errors with CodeUnknownAction
	ErrUnknownAction = errors.New("unknown action")
	// ErrPathConflict matches Errors with CodePathConflict
	ErrPathConflict = errors.New("path conflict")
	// ErrDuplicateAction is returned when registering an existing name
	ErrDuplicateAction = errors.New("action already registered")
)

// Error is the reason carried by a Failed result.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

// ReasonCode returns the compact form used in rejection records.
func (e *Error) ReasonCode() string {
	return string(e.Code)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match Errors against the code sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnknownAction:
		return e.Code == CodeUnknownAction
	case ErrPathConflict:
		return e.Code == CodePathConflict
	}
	return false
}
