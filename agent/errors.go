package agent

import "errors"

var (
	ErrAgentNotFound   = errors.New("agent not found")
	ErrAgentExists     = errors.New("agent already registered")
	ErrEmptyAgentName  = errors.New("agent name is empty")
	ErrUnknownProvider = errors.New("unknown provider")
)
