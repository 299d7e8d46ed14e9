package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/requestctx"
)

// Executor is the function service as seen by the listener.
type Executor interface {
	Invoke(ctx context.Context, req *functions.FunctionRequest) (*functions.FunctionResponse, error)
	List() ([]string, error)
	ClearCache()
}

// ExecutorHandlers serves the executor endpoints.
type ExecutorHandlers struct {
	exec Executor
}

func NewExecutorHandlers(exec Executor) *ExecutorHandlers {
	return &ExecutorHandlers{exec: exec}
}

// Health reports liveness.
func (h *ExecutorHandlers) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListFunctions returns the names of loadable functions.
func (h *ExecutorHandlers) ListFunctions(w http.ResponseWriter, r *http.Request) {
	names, err := h.exec.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list functions")
		InternalError(w, functions.UnknownRequestID, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string][]string{"functions": names})
}

// Invoke runs a function. Function-level failures are answered with 200;
// the status code only reflects whether the executor could run it at all.
func (h *ExecutorHandlers) Invoke(w http.ResponseWriter, r *http.Request) {
	var req functions.FunctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Failure(w, http.StatusRequestEntityTooLarge, functions.UnknownRequestID,
				functions.CodeInvalidRequest, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		BadRequest(w, functions.UnknownRequestID, "Invalid JSON: "+err.Error())
		return
	}

	if inv := requestctx.InvocationFrom(r.Context()); inv != nil {
		inv.RequestID = req.RequestID
		inv.Function = req.Function
	}

	// A client disconnect must not cancel a running function.
	resp, err := h.exec.Invoke(context.WithoutCancel(r.Context()), &req)

	if inv := requestctx.InvocationFrom(r.Context()); inv != nil {
		inv.Success = resp.Success
		if resp.Error != nil {
			inv.Code = resp.Error.Code
		}
	}

	JSON(w, statusFor(err), resp)
}

// ClearCache empties the function cache.
func (h *ExecutorHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.exec.ClearCache()
	JSON(w, http.StatusOK, map[string]string{"status": "cache_cleared"})
}

func statusFor(err error) int {
	var nf *functions.NotFoundError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, functions.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
