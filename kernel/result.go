package kernel

import (
	"time"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/session"
)

// Result is the outcome of one turn.
type Result struct {
	SessionID       string           `json:"session_id"`
	Response        string           `json:"response"`
	Intent          session.Intent   `json:"intent"`
	ExchangeCount   int              `json:"exchange_count"`
	ToolsUsed       []string         `json:"tools_used"`
	ToolCallDetails []ToolCallDetail `json:"tool_call_details"`
	NeedsApproval   bool             `json:"needs_approval"`
	ApprovalPrompt  string           `json:"approval_prompt,omitempty"`

	// Degraded lists diagnostics for recovered failures (classifier
	// fallback, failed ambiguity checks, the tool round limit).
	Degraded []string `json:"degraded,omitempty"`

	// ToolCalls logs every executed call with its result.
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}

// ToolCallDetail is a tool call the agent proposed during the turn.
type ToolCallDetail struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallRecord is one executed tool call.
type ToolCallRecord struct {
	Call     protocol.ToolCall `json:"call"`
	Round    int               `json:"round"`    // Execution pass within the turn, from 1.
	Result   string            `json:"result"`   // Content recorded in the log.
	IsError  bool              `json:"is_error"` // Whether execution failed.
	Duration time.Duration     `json:"duration"`
}

// newResult summarizes the messages appended after index from.
func newResult(sessionID string, s turnState, from int) *Result {
	r := &Result{
		SessionID:       sessionID,
		Intent:          s.Turn.Intent,
		ExchangeCount:   s.Turn.ExchangeCount,
		ToolsUsed:       []string{},
		ToolCallDetails: []ToolCallDetail{},
		NeedsApproval:   s.Turn.NeedsApproval,
		ApprovalPrompt:  s.Turn.ApprovalPrompt,
		Degraded:        s.degraded,
		ToolCalls:       s.executed,
	}

	for _, msg := range s.Messages[from:] {
		if msg.Role != protocol.RoleAssistant {
			continue
		}
		r.Response = msg.Content
		for _, tc := range msg.ToolCalls {
			r.ToolCallDetails = append(r.ToolCallDetails, ToolCallDetail{
				Name:      tc.Name,
				Arguments: tc.Clone().Arguments,
			})
		}
	}

	seen := make(map[string]bool)
	for _, rec := range s.executed {
		if !seen[rec.Call.Name] {
			seen[rec.Call.Name] = true
			r.ToolsUsed = append(r.ToolsUsed, rec.Call.Name)
		}
	}
	return r
}
