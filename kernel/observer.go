package kernel

import "github.com/tailored-agentic-units/assistant/observability"

// Kernel event types emitted during a turn.
const (
	EventRunStart         observability.EventType = "kernel.run.start"
	EventRunComplete      observability.EventType = "kernel.run.complete"
	EventRunFailed        observability.EventType = "kernel.run.failed"
	EventIntent           observability.EventType = "kernel.intent"
	EventResponse         observability.EventType = "kernel.response"
	EventApprovalRequired observability.EventType = "kernel.approval.required"
	EventRoundLimit       observability.EventType = "kernel.round.limit"
	EventDegraded         observability.EventType = "kernel.degraded"
)
