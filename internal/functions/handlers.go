package functions

import (
	"fmt"
	"slices"
	"sync"

	"github.com/watzon/alyx-executor/internal/sdk"
)

// HandlerSet holds the Go handlers compiled into the executor. Manifests
// refer to them by name.
type HandlerSet struct {
	mu       sync.RWMutex
	handlers map[string]sdk.Handler
}

// NewHandlerSet returns an empty set.
func NewHandlerSet() *HandlerSet {
	return &HandlerSet{handlers: make(map[string]sdk.Handler)}
}

// Register adds h under name. Registering a name twice is an error.
func (s *HandlerSet) Register(name string, h sdk.Handler) error {
	if name == "" {
		return fmt.Errorf("handler name is required")
	}
	if h == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	s.handlers[name] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (s *HandlerSet) MustRegister(name string, h sdk.Handler) {
	if err := s.Register(name, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered under name.
func (s *HandlerSet) Lookup(name string) (sdk.Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[name]
	return h, ok
}

// Names returns the registered handler names, sorted.
func (s *HandlerSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
