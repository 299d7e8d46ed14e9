package sdk

import "context"

// AuthContext describes the authenticated caller.
type AuthContext struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Role     string         `json:"role,omitempty"`
	Verified bool           `json:"verified"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Context is handed to a handler for one invocation.
type Context struct {
	// Auth is nil when the invocation is unauthenticated.
	Auth *AuthContext
	Env  map[string]string
	DB   *DB
	Log  *Logger

	logs *LogBuffer
}

// NewContext assembles a handler context around a fresh log buffer.
func NewContext(auth *AuthContext, env map[string]string, db *DB) *Context {
	if env == nil {
		env = map[string]string{}
	}
	buf := NewLogBuffer()
	return &Context{
		Auth: auth,
		Env:  env,
		DB:   db,
		Log:  NewLogger(buf),
		logs: buf,
	}
}

// Logs returns everything written to Log so far.
func (c *Context) Logs() []LogEntry {
	return c.logs.Entries()
}

// Handler implements a function. Returning an error that is or wraps a
// *FunctionError reports its code, message and details; any other error is
// reported as FUNCTION_ERROR.
type Handler func(ctx context.Context, input map[string]any, fc *Context) (any, error)

// Definition is a loaded function. It is shared between invocations and must
// not be modified after it is cached.
type Definition struct {
	Handler     Handler
	InputSchema Schema
	// OutputSchema documents the result shape; it is never enforced.
	OutputSchema Schema
}
