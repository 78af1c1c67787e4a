package tools

import "github.com/tailored-agentic-units/assistant/observability"

const (
	EventToolStart    observability.EventType = "tool.start"
	EventToolComplete observability.EventType = "tool.complete"
)
