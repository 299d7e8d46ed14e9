// Package functions resolves, validates and invokes serverless functions.
package functions

import (
	"encoding/json"

	"github.com/watzon/alyx-executor/internal/sdk"
)

// UnknownRequestID is echoed when a request carries no usable request ID.
const UnknownRequestID = "unknown"

// Response error codes produced by the executor itself.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeFunctionNotFound = "FUNCTION_NOT_FOUND"
	CodeLoadError        = "FUNCTION_LOAD_ERROR"
	CodeContractError    = "FUNCTION_CONTRACT_ERROR"
	CodeExecutorError    = "EXECUTOR_ERROR"
)

// FunctionRequest represents a function invocation request.
type FunctionRequest struct {
	// RequestID is a caller-supplied identifier echoed in the response.
	RequestID string `json:"request_id"`
	// Function is the name of the function to invoke.
	Function string `json:"function"`
	// Input is the function input data.
	Input map[string]any `json:"input"`
	// Context contains auth and environment information.
	Context *FunctionContext `json:"context"`
}

// FunctionContext is the wire form of the execution context.
type FunctionContext struct {
	// Auth contains the authenticated user info (nil if unauthenticated).
	Auth *sdk.AuthContext `json:"auth,omitempty"`
	// Env contains environment variables available to the function.
	Env map[string]string `json:"env,omitempty"`
	// AlyxURL is the base URL of the Internal API.
	AlyxURL string `json:"alyx_url"`
	// InternalToken authorizes Internal API calls.
	InternalToken string `json:"internal_token"`
}

// FunctionResponse represents a function invocation response.
type FunctionResponse struct {
	// RequestID echoes the request ID.
	RequestID string `json:"request_id"`
	// Success indicates whether the function executed successfully.
	Success bool `json:"success"`
	// Output contains the function return value on success.
	Output any `json:"output,omitempty"`
	// Error contains error details on failure.
	Error *sdk.FunctionError `json:"error,omitempty"`
	// Logs contains log entries from the function.
	Logs []sdk.LogEntry `json:"logs"`
	// DurationMs is the execution time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// Failure builds an unsuccessful response with no logs.
func Failure(requestID, code, message string) *FunctionResponse {
	if requestID == "" {
		requestID = UnknownRequestID
	}
	return &FunctionResponse{
		RequestID: requestID,
		Error:     &sdk.FunctionError{Code: code, Message: message, Details: map[string]any{}},
		Logs:      []sdk.LogEntry{},
	}
}

// MarshalJSON writes output on every successful response, as null when the
// handler returned nothing.
func (r FunctionResponse) MarshalJSON() ([]byte, error) {
	type plain FunctionResponse
	if !r.Success {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		Output any `json:"output"`
	}{plain(r), r.Output})
}
