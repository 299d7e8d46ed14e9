package functions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/alyx-executor/internal/metrics"
)

// ServiceConfig holds configuration for a Service.
type ServiceConfig struct {
	// Root is the functions directory.
	Root string
	// Handlers holds the Go handlers manifests may reference.
	Handlers *HandlerSet
	// Ignore holds glob patterns for entries hidden from List.
	Ignore []string
	// Client is shared by every invocation's database façade.
	Client *http.Client
}

// Service is the process-scoped entry point for invoking functions. It owns
// the function cache for its whole lifetime.
type Service struct {
	registry *Registry
	engine   *Engine
}

// NewService creates a new function service.
func NewService(cfg ServiceConfig) (*Service, error) {
	registry, err := NewRegistry(RegistryConfig{
		Root:     cfg.Root,
		Handlers: cfg.Handlers,
		Ignore:   cfg.Ignore,
	})
	if err != nil {
		return nil, fmt.Errorf("creating registry: %w", err)
	}

	return &Service{
		registry: registry,
		engine:   NewEngine(cfg.Client),
	}, nil
}

// Registry returns the service's function registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Invoke runs one request. The response is always non-nil. The error is
// non-nil only when the function never ran: it wraps ErrInvalidRequest or
// is a *NotFoundError, *LoadError or *ContractError. Function-level failures
// are reported in the response alone.
func (s *Service) Invoke(ctx context.Context, req *FunctionRequest) (*FunctionResponse, error) {
	if err := checkRequest(req); err != nil {
		requestID := ""
		if req != nil {
			requestID = req.RequestID
		}
		return Failure(requestID, CodeInvalidRequest, err.Error()), err
	}

	start := time.Now()

	def, err := s.registry.Resolve(req.Function)
	if err != nil {
		resp := resolveFailure(req.RequestID, err)
		resp.DurationMs = time.Since(start).Milliseconds()
		metrics.RecordFunctionInvocation(req.Function, resp.Error.Code, time.Since(start))
		return resp, err
	}

	resp := s.engine.Execute(ctx, def, req)

	status := "success"
	if !resp.Success {
		status = "error"
		log.Debug().
			Str("request_id", req.RequestID).
			Str("function", req.Function).
			Str("code", resp.Error.Code).
			Str("error", resp.Error.Message).
			Msg("Function returned an error")
	}
	metrics.RecordFunctionInvocation(req.Function, status, time.Since(start))

	log.Debug().
		Str("request_id", req.RequestID).
		Str("function", req.Function).
		Bool("success", resp.Success).
		Int64("duration_ms", resp.DurationMs).
		Int("logs", len(resp.Logs)).
		Msg("Function invoked")

	return resp, nil
}

// List returns the names of loadable functions.
func (s *Service) List() ([]string, error) {
	return s.registry.List()
}

// ClearCache empties the function cache.
func (s *Service) ClearCache() {
	s.registry.Clear()
	log.Info().Msg("Function cache cleared")
}

func checkRequest(req *FunctionRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: request body is required", ErrInvalidRequest)
	case req.Function == "":
		return fmt.Errorf("%w: function is required", ErrInvalidRequest)
	case req.RequestID == "":
		return fmt.Errorf("%w: request_id is required", ErrInvalidRequest)
	case req.Input == nil:
		return fmt.Errorf("%w: input is required", ErrInvalidRequest)
	}
	return nil
}

func resolveFailure(requestID string, err error) *FunctionResponse {
	var (
		nf *NotFoundError
		le *LoadError
		ce *ContractError
	)
	switch {
	case errors.As(err, &nf):
		return Failure(requestID, CodeFunctionNotFound, nf.Error())
	case errors.As(err, &ce):
		return Failure(requestID, CodeContractError, ce.Error())
	case errors.As(err, &le):
		return Failure(requestID, CodeLoadError, le.Error())
	default:
		return Failure(requestID, CodeExecutorError, err.Error())
	}
}
