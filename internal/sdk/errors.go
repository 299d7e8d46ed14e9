package sdk

import (
	"errors"
	"fmt"
)

// Error codes reported in FunctionResponse.error.code.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeFunctionError = "FUNCTION_ERROR"
)

// ErrNotFound is returned by Collection.FindOne when no document matches.
var ErrNotFound = errors.New("document not found")

// FunctionError is a domain error raised by a handler. Its fields are copied
// verbatim into the invocation response.
type FunctionError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// NewError returns a FunctionError with the given code and message.
func NewError(code, message string, details map[string]any) *FunctionError {
	return &FunctionError{Code: code, Message: message, Details: details}
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationError reports the first schema rule an input violated.
type ValidationError struct {
	Field string
	// Rule is one of required, type, min_length or max_length.
	Rule     string
	Expected Kind
	Bound    int
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("Field '%s' is required", e.Field)
	case "type":
		return fmt.Sprintf("Field '%s' must be of type %s", e.Field, e.Expected)
	case "min_length":
		return fmt.Sprintf("Field '%s' must be at least %d characters", e.Field, e.Bound)
	case "max_length":
		return fmt.Sprintf("Field '%s' must be at most %d characters", e.Field, e.Bound)
	default:
		return fmt.Sprintf("Field '%s' is invalid", e.Field)
	}
}

// FunctionError converts the violation into the response error shape.
func (e *ValidationError) FunctionError() *FunctionError {
	details := map[string]any{"field": e.Field}
	switch e.Rule {
	case "type":
		details["expected"] = string(e.Expected)
	case "min_length", "max_length":
		details[e.Rule] = e.Bound
	}
	return NewError(CodeValidation, e.Error(), details)
}

// RemoteError is returned when the Internal API answers with a non-2xx status.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// ConnectionError is returned when the Internal API cannot be reached,
// including when a request exceeds its timeout.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	return "Connection error: " + e.Reason
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
