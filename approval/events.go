package approval

import "github.com/tailored-agentic-units/assistant/observability"

const (
	EventChecked     observability.EventType = "approval.checked"
	EventBlocked     observability.EventType = "approval.blocked"
	EventJudgeFailed observability.EventType = "approval.judge_failed"
)
