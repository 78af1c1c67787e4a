// Package protocol defines the conversation types shared by every subsystem:
// messages, tool calls, and tool definitions.
package protocol

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request, proposed by an assistant message, to
// invoke a named tool with arguments.
//
// Fields are flat for direct use across the module. MarshalJSON writes the
// nested chat-completions wire format (function.name, function.arguments as a
// JSON string); UnmarshalJSON accepts both the nested and the flat form.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// NewToolCall creates a ToolCall. Arguments are converted to the types a JSON
// decode produces, so numbers become float64 and a call compares equal to
// itself after a store round trip. Empty arguments are stored as nil.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	tc := ToolCall{ID: id, Name: name, Arguments: jsonArguments(args)}
	tc.normalize()
	return tc
}

// jsonArguments returns args as decoded JSON. Arguments that cannot be
// encoded are returned unchanged and fail later in ArgumentsJSON.
func jsonArguments(args map[string]any) map[string]any {
	if len(args) == 0 {
		return args
	}
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return args
	}
	return decoded
}

// ArgumentsJSON encodes Arguments as a JSON object. Nil arguments encode as {}.
func (tc ToolCall) ArgumentsJSON() (json.RawMessage, error) {
	if tc.Arguments == nil {
		return json.RawMessage(`{}`), nil
	}
	data, err := json.Marshal(tc.Arguments)
	if err != nil {
		return nil, fmt.Errorf("encode arguments for %s: %w", tc.Name, err)
	}
	return data, nil
}

// StringArg returns the named argument when it is a string.
func (tc ToolCall) StringArg(key string) (string, bool) {
	v, ok := tc.Arguments[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a copy whose Arguments map is independent of the original.
func (tc ToolCall) Clone() ToolCall {
	tc.Arguments = maps.Clone(tc.Arguments)
	return tc
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MarshalJSON serializes to the nested wire format
// ({id, type, function: {name, arguments}}).
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	args, err := tc.ArgumentsJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		ID       string       `json:"id"`
		Type     string       `json:"type"`
		Function wireFunction `json:"function"`
	}{
		ID:       tc.ID,
		Type:     "function",
		Function: wireFunction{Name: tc.Name, Arguments: string(args)},
	})
}

// UnmarshalJSON handles the nested wire format, whose arguments are a JSON
// string, and the flat format, whose arguments are a JSON object. Empty
// arguments decode as nil.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested struct {
		ID       string       `json:"id"`
		Function wireFunction `json:"function"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nil
		if nested.Function.Arguments == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(nested.Function.Arguments), &tc.Arguments); err != nil {
			return fmt.Errorf("decode arguments for %s: %w", tc.Name, err)
		}
		tc.normalize()
		return nil
	}

	type plain ToolCall
	if err := json.Unmarshal(data, (*plain)(tc)); err != nil {
		return err
	}
	tc.normalize()
	return nil
}

// normalize stores empty arguments as nil so encoded calls round-trip exactly.
func (tc *ToolCall) normalize() {
	if len(tc.Arguments) == 0 {
		tc.Arguments = nil
	}
}

// Message is a single entry of a conversation log.
//
// Assistant messages may carry ToolCalls; tool messages carry the ToolCallID
// of the call they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage creates a Message with the given role and content.
// Use struct literals directly when setting tool call fields.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Hello, world!")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewToolResult creates the tool message answering the call with the given id.
func NewToolResult(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// HasToolCalls reports whether the message proposes at least one tool call.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Clone returns a deep copy of the message's tool calls.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		m.ToolCalls = CloneToolCalls(m.ToolCalls)
	}
	return m
}

// CloneMessages deep-copies a message slice.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// CloneToolCalls deep-copies a tool call slice.
func CloneToolCalls(calls []ToolCall) []ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = tc.Clone()
	}
	return out
}
