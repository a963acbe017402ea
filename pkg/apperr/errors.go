package apperr

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
	// Completed lists the steps of a multi-record operation that remain
	// committed after best-effort compensation. Only set for PARTIAL_FAILURE.
	Completed []string `json:"completed,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func CreateFailed(msg string, cause error) error {
	return Wrap(CodeCreateFailed, msg, cause)
}

func ParticipantCreateFailed(msg string, cause error) error {
	return Wrap(CodeParticipantCreateFailed, msg, cause)
}

func PartialFailure(msg string, completed []string, cause error) error {
	return &AppError{Code: CodePartialFailure, Message: msg, Cause: cause, Completed: completed}
}

func Unauthorized(msg string) error {
	return New(CodeUnauthenticated, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf extracts the code from err, walking the wrap chain.
// Errors without an AppError in the chain report CodeUnknown.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
