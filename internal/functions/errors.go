package functions

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks a request that is missing required fields.
var ErrInvalidRequest = errors.New("invalid request")

// NotFoundError is returned when no manifest exists for a function name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Function '%s' not found", e.Name)
}

// LoadError is returned when a manifest cannot be read, parsed or compiled.
type LoadError struct {
	Name string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading function '%s' from %s: %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ContractError is returned when a manifest parses but does not describe
// exactly one usable handler.
type ContractError struct {
	Name   string
	Path   string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("function '%s' (%s): %s", e.Name, e.Path, e.Reason)
}
