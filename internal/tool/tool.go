// Package tool holds the model-callable tools exposed alongside a prompt.
package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownTool is returned by Execute for names with no handler.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgs is wrapped by handlers that cannot parse their arguments.
	ErrInvalidArgs = errors.New("invalid tool arguments")
)

// Definition describes a tool to the model in OpenAI function format.
type Definition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable function.
type Function struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// Handler executes a tool call and returns the result as a string.
type Handler func(ctx context.Context, args string) (string, error)

// Registry holds available tools and their handlers.
type Registry struct {
	mu       sync.RWMutex
	defs     []Definition
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a tool definition and its handler. Registering a name twice
// replaces the earlier definition.
func (r *Registry) Register(def Definition, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.Type == "" {
		def.Type = "function"
	}
	name := def.Function.Name
	if _, ok := r.handlers[name]; ok {
		for i, d := range r.defs {
			if d.Function.Name == name {
				r.defs = append(r.defs[:i], r.defs[i+1:]...)
				break
			}
		}
	}
	r.defs = append(r.defs, def)
	r.handlers[name] = handler
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Definitions returns all tool definitions for the LLM request.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Definition(nil), r.defs...)
}

// Execute runs a tool by name with the given JSON arguments.
func (r *Registry) Execute(ctx context.Context, name, args string) (string, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return h(ctx, args)
}
