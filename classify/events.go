package classify

import "github.com/tailored-agentic-units/assistant/observability"

const (
	EventClassifyComplete observability.EventType = "classify.complete"
	EventClassifyDegraded observability.EventType = "classify.degraded"
)
