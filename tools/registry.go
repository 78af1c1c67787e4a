// Package tools holds the tool registry and the concurrent executor that
// turns proposed tool calls into tool-result messages.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/assistant/core/protocol"
)

// Handler runs one tool call. args is the JSON object the model produced.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the text returned to the model. IsError marks content that
// describes a failure the tool itself detected.
type Result struct {
	Content string
	IsError bool
}

// Registry maps tool names to schemas and handlers. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	schemas  []protocol.Tool // sorted by name
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool. A name already in use returns ErrAlreadyExists.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	return r.put(tool, handler, false)
}

// Replace swaps the schema and handler of a registered tool. An unknown name
// returns ErrNotFound.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	return r.put(tool, handler, true)
}

func (r *Registry) put(tool protocol.Tool, handler Handler, replace bool) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, found := slices.BinarySearchFunc(r.schemas, tool.Name, func(t protocol.Tool, name string) int {
		return strings.Compare(t.Name, name)
	})
	switch {
	case found && !replace:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	case !found && replace:
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	case found:
		r.schemas[i] = tool
	default:
		r.schemas = slices.Insert(r.schemas, i, tool)
	}
	r.handlers[tool.Name] = handler
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// List returns the schemas of every tool, sorted by name so the list sent to
// the model is stable between calls.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.schemas)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Execute runs the handler registered under name. An unknown name returns
// ErrNotFound; handler errors are wrapped with the tool name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	h, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := h(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s failed: %w", name, err)
	}
	return result, nil
}
