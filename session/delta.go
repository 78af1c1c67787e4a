package session

import "github.com/tailored-agentic-units/assistant/core/protocol"

// Delta is a partial update produced by one step of a turn.
//
// Messages are appended to the log. Every other field replaces the current
// value when non-nil and leaves it unchanged when nil.
type Delta struct {
	Messages         []protocol.Message
	Intent           *Intent
	ExchangeCount    *int
	NeedsApproval    *bool
	PendingToolCalls *[]protocol.ToolCall
	ApprovalPrompt   *string
}

// Apply merges d into s and returns the result. s is not modified.
func Apply(s Snapshot, d Delta) Snapshot {
	out := Snapshot{Turn: s.Turn}

	out.Messages = make([]protocol.Message, 0, len(s.Messages)+len(d.Messages))
	out.Messages = append(out.Messages, s.Messages...)
	for _, msg := range d.Messages {
		out.Messages = append(out.Messages, msg.Clone())
	}

	if d.Intent != nil {
		out.Turn.Intent = *d.Intent
	}
	if d.ExchangeCount != nil {
		out.Turn.ExchangeCount = *d.ExchangeCount
	}
	if d.NeedsApproval != nil {
		out.Turn.NeedsApproval = *d.NeedsApproval
	}
	if d.PendingToolCalls != nil {
		out.Turn.PendingToolCalls = nil
		if len(*d.PendingToolCalls) > 0 {
			out.Turn.PendingToolCalls = protocol.CloneToolCalls(*d.PendingToolCalls)
		}
	}
	if d.ApprovalPrompt != nil {
		out.Turn.ApprovalPrompt = *d.ApprovalPrompt
	}
	return out
}

// Merge combines two deltas so that Apply(s, a.Merge(b)) equals
// Apply(Apply(s, a), b).
func (d Delta) Merge(next Delta) Delta {
	out := d
	out.Messages = append(append([]protocol.Message(nil), d.Messages...), next.Messages...)
	if next.Intent != nil {
		out.Intent = next.Intent
	}
	if next.ExchangeCount != nil {
		out.ExchangeCount = next.ExchangeCount
	}
	if next.NeedsApproval != nil {
		out.NeedsApproval = next.NeedsApproval
	}
	if next.PendingToolCalls != nil {
		out.PendingToolCalls = next.PendingToolCalls
	}
	if next.ApprovalPrompt != nil {
		out.ApprovalPrompt = next.ApprovalPrompt
	}
	return out
}

// Append returns a delta that only appends messages.
func Append(msgs ...protocol.Message) Delta {
	return Delta{Messages: msgs}
}

// ClearApproval returns a delta that resets all approval fields.
func ClearApproval() Delta {
	needs := false
	pending := []protocol.ToolCall(nil)
	prompt := ""
	return Delta{NeedsApproval: &needs, PendingToolCalls: &pending, ApprovalPrompt: &prompt}
}

// RequestApproval returns a delta that blocks on the given calls.
func RequestApproval(prompt string, calls []protocol.ToolCall) Delta {
	needs := true
	pending := protocol.CloneToolCalls(calls)
	return Delta{NeedsApproval: &needs, PendingToolCalls: &pending, ApprovalPrompt: &prompt}
}

// SetIntent returns a delta that records the classified intent.
func SetIntent(intent Intent) Delta {
	return Delta{Intent: &intent}
}

// SetExchangeCount returns a delta that replaces the exchange counter.
func SetExchangeCount(n int) Delta {
	return Delta{ExchangeCount: &n}
}
