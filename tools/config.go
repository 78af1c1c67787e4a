package tools

import (
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
)

// ExecutorConfig bounds tool execution.
type ExecutorConfig struct {
	// Timeout applies to each call separately.
	Timeout config.Duration `json:"timeout" yaml:"timeout"`

	// MaxWorkers limits concurrent calls (0 = one worker per call, capped).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Timeout: config.Duration(30 * time.Second),
	}
}

func (c *ExecutorConfig) Merge(source *ExecutorConfig) {
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.MaxWorkers > 0 {
		c.MaxWorkers = source.MaxWorkers
	}
}
