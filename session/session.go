// Package session holds per-conversation state and its persistence.
//
// A Snapshot is the committed state of one session: the append-only
// conversation log and the derived turn fields. Snapshots change only by
// applying a Delta, and are persisted whole through a Store.
package session

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/assistant/core/protocol"
)

// Intent is the coarse purpose of a user message.
type Intent string

const (
	IntentUnknown  Intent = "unknown"
	IntentGreeting Intent = "greeting"
	IntentFarewell Intent = "farewell"
	IntentQuestion Intent = "question"
)

// ParseIntent maps a label to an Intent. Anything unrecognized is
// IntentUnknown with ok=false.
func ParseIntent(label string) (Intent, bool) {
	switch Intent(label) {
	case IntentGreeting, IntentFarewell, IntentQuestion:
		return Intent(label), true
	default:
		return IntentUnknown, false
	}
}

var ErrInvalidTurnState = errors.New("invalid turn state")

// TurnState holds the fields derived during the most recent turn.
//
// NeedsApproval is true exactly when PendingToolCalls and ApprovalPrompt are
// both non-empty.
type TurnState struct {
	Intent           Intent              `json:"intent"`
	ExchangeCount    int                 `json:"exchange_count"`
	NeedsApproval    bool                `json:"needs_approval"`
	PendingToolCalls []protocol.ToolCall `json:"pending_tool_calls,omitempty"`
	ApprovalPrompt   string              `json:"approval_prompt,omitempty"`
}

// Validate reports a violated approval invariant or a negative counter.
func (t TurnState) Validate() error {
	if t.ExchangeCount < 0 {
		return fmt.Errorf("%w: negative exchange count %d", ErrInvalidTurnState, t.ExchangeCount)
	}
	if t.NeedsApproval {
		if len(t.PendingToolCalls) == 0 || t.ApprovalPrompt == "" {
			return fmt.Errorf("%w: approval requested without pending calls and prompt", ErrInvalidTurnState)
		}
		return nil
	}
	if len(t.PendingToolCalls) > 0 || t.ApprovalPrompt != "" {
		return fmt.Errorf("%w: pending approval fields set without approval", ErrInvalidTurnState)
	}
	return nil
}

// Snapshot is the committed state of one session.
type Snapshot struct {
	Messages []protocol.Message `json:"messages"`
	Turn     TurnState          `json:"turn"`
}

// New returns the state of a session that has not been seen before.
func New() Snapshot {
	return Snapshot{Turn: TurnState{Intent: IntentUnknown}}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Messages = protocol.CloneMessages(s.Messages)
	s.Turn.PendingToolCalls = protocol.CloneToolCalls(s.Turn.PendingToolCalls)
	return s
}

// Last returns the final message of the log.
func (s Snapshot) Last() (protocol.Message, bool) {
	if len(s.Messages) == 0 {
		return protocol.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserText returns the content of the most recent user message.
func (s Snapshot) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == protocol.RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Validate checks the turn invariants and that every tool result answers a
// call proposed earlier in the log.
func (s Snapshot) Validate() error {
	if err := s.Turn.Validate(); err != nil {
		return err
	}

	proposed := make(map[string]bool)
	for i, msg := range s.Messages {
		switch msg.Role {
		case protocol.RoleAssistant:
			for _, tc := range msg.ToolCalls {
				proposed[tc.ID] = true
			}
		case protocol.RoleTool:
			if !proposed[msg.ToolCallID] {
				return fmt.Errorf("%w: message %d answers unknown tool call %q", ErrInvalidTurnState, i, msg.ToolCallID)
			}
		}
	}
	return nil
}
