package models

import (
	"errors"
	"fmt"
)

// Error codes for the failure taxonomy. Agent-level errors are recorded
// on the trace and never surfaced as workflow failures; only an
// internal bug escapes the coordinator.
const (
	ErrCodeIntentParse     = "INTENT_PARSE"
	ErrCodeCypherRejected  = "CYPHER_REJECTED"
	ErrCodeCypherExecution = "CYPHER_EXECUTION"
	ErrCodeToolProtocol    = "TOOL_PROTOCOL"
	ErrCodeToolLogic       = "TOOL_LOGIC"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeCancelled       = "CANCELLED"
	ErrCodeValidation      = "VALIDATION"
	ErrCodeExternal        = "EXTERNAL"
)

// ErrCancelled's message is the error list's only entry when the caller
// cancels.
var ErrCancelled = &AppError{Code: ErrCodeCancelled, Message: "cancelled"}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Cause: cause}
}

func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func NewTimeoutError(code, message string) *AppError {
	if code == "" {
		code = ErrCodeTimeout
	}
	return &AppError{Code: code, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// WrapExternalError tags a failure from an outbound dependency.
func WrapExternalError(system string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeExternal,
		Message: fmt.Sprintf("%s call failed", system),
		Cause:   err,
	}
}

func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsTimeout(err error) bool {
	return IsCode(err, ErrCodeTimeout)
}
