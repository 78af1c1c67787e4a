// Package providers adapts vendor SDKs to the protocol message types.
package providers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/assistant/core/protocol"
)

var (
	ErrMissingAPIKey = errors.New("api key not set")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Provider performs one completion. A nil or empty tools slice requests a
// plain answer.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error)
}

// BaseProvider holds the identity shared by the SDK-backed providers.
type BaseProvider struct {
	name    string
	model   string
	baseURL string
}

func NewBaseProvider(name, model, baseURL string) *BaseProvider {
	return &BaseProvider{name: name, model: model, baseURL: baseURL}
}

func (p *BaseProvider) Name() string    { return p.name }
func (p *BaseProvider) Model() string   { return p.model }
func (p *BaseProvider) BaseURL() string { return p.baseURL }

// NormalizeToolCalls gives every call an id that is unique within the
// message. Missing or repeated ids are replaced with "call_<uuid>".
func NormalizeToolCalls(calls []protocol.ToolCall) []protocol.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(calls))
	out := make([]protocol.ToolCall, len(calls))
	for i, tc := range calls {
		if tc.ID == "" || seen[tc.ID] {
			tc.ID = "call_" + uuid.NewString()
		}
		seen[tc.ID] = true
		out[i] = tc
	}
	return out
}

// schemaProperties splits a JSON Schema object into properties and
// required names.
func schemaProperties(schema map[string]any) (map[string]any, []string) {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}

	var required []string
	switch r := schema["required"].(type) {
	case []string:
		required = r
	case []any:
		for _, v := range r {
			if s, ok := v.(string); ok {
				required = append(required, s)
			}
		}
	}
	return props, required
}
