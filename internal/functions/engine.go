package functions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/alyx-executor/internal/sdk"
)

// Engine runs a resolved function against one request.
type Engine struct {
	client *http.Client
}

// NewEngine returns an Engine whose database façades share client.
// A nil client gets one with the default Internal API timeout.
func NewEngine(client *http.Client) *Engine {
	if client == nil {
		client = sdk.NewHTTPClient(sdk.DefaultRequestTimeout)
	}
	return &Engine{client: client}
}

// Execute builds the context, validates the input, calls the handler and
// assembles the response. Every outcome is reported in the response; logs
// written before a failure are kept.
func (e *Engine) Execute(ctx context.Context, def *sdk.Definition, req *FunctionRequest) *FunctionResponse {
	start := time.Now()

	fc := BuildContext(req.Context, e.client)
	input := req.Input
	if input == nil {
		input = map[string]any{}
	}

	resp := &FunctionResponse{RequestID: req.RequestID}

	if len(def.InputSchema) > 0 {
		if err := sdk.Validate(input, def.InputSchema); err != nil {
			resp.Error = toFunctionError(err)
			return finish(resp, fc, start)
		}
	}

	output, err := callHandler(ctx, def.Handler, input, fc)
	if err != nil {
		resp.Error = toFunctionError(err)
		return finish(resp, fc, start)
	}

	resp.Success = true
	resp.Output = output
	return finish(resp, fc, start)
}

func finish(resp *FunctionResponse, fc *sdk.Context, start time.Time) *FunctionResponse {
	resp.Logs = fc.Logs()
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp
}

// callHandler runs h and converts a panic into an error.
func callHandler(ctx context.Context, h sdk.Handler, input map[string]any, fc *sdk.Context) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Function handler panicked")
			err = fmt.Errorf("%v", r)
		}
	}()
	return h(ctx, input, fc)
}

func toFunctionError(err error) *sdk.FunctionError {
	var fe *sdk.FunctionError
	if errors.As(err, &fe) {
		return &sdk.FunctionError{Code: fe.Code, Message: fe.Message, Details: fe.Details}
	}
	var ve *sdk.ValidationError
	if errors.As(err, &ve) {
		return ve.FunctionError()
	}
	return &sdk.FunctionError{
		Code:    sdk.CodeFunctionError,
		Message: err.Error(),
		Details: map[string]any{},
	}
}
