// Package requestctx carries per-request values between listener middleware
// and handlers.
package requestctx

import (
	"context"
	"time"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	requestTimeKey contextKey = "request_time"
	invocationKey  contextKey = "invocation"
)

// Invocation is filled in by the invoke handler so outer middleware can
// report which function a request ran.
type Invocation struct {
	// RequestID is the caller's request_id from the body, not the X-Request-ID.
	RequestID string
	Function  string
	Success   bool
	// Code is the error code of a failed invocation.
	Code string
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func WithRequestTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

// WithInvocation attaches an empty Invocation and returns it for later reads.
func WithInvocation(ctx context.Context) (context.Context, *Invocation) {
	inv := &Invocation{}
	return context.WithValue(ctx, invocationKey, inv), inv
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func RequestTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// InvocationFrom returns the Invocation attached to ctx, or nil.
func InvocationFrom(ctx context.Context) *Invocation {
	inv, _ := ctx.Value(invocationKey).(*Invocation)
	return inv
}
