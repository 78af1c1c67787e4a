package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/assistant/approval"
	"github.com/tailored-agentic-units/assistant/classify"
	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/memory"
	orchestrate "github.com/tailored-agentic-units/assistant/orchestrate/config"
	"github.com/tailored-agentic-units/assistant/session"
	"github.com/tailored-agentic-units/assistant/tools"
	"github.com/tailored-agentic-units/assistant/tools/builtin"
)

const (
	defaultMaxToolRounds = 8

	// Agent names looked up in Config.Agents. Roles without an entry use
	// the main agent.
	ClassifierAgent = "classifier"
	JudgeAgent      = "judge"
)

const defaultSystemPrompt = `You are a helpful assistant. Answer the user's questions directly when you can.
Use the available tools for arithmetic, current weather and web lookups, then answer using their results.
If a tool reports an error, explain the problem or try a different approach.`

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Agent         config.AgentConfig            `json:"agent" yaml:"agent"`
	Agents        map[string]config.AgentConfig `json:"agents,omitempty" yaml:"agents,omitempty"`
	Session       session.Config                `json:"session" yaml:"session"`
	Memory        memory.Config                 `json:"memory" yaml:"memory"`
	Graph         orchestrate.GraphConfig       `json:"graph" yaml:"graph"`
	Tools         tools.ExecutorConfig          `json:"tools" yaml:"tools"`
	Builtin       builtin.Config                `json:"builtin" yaml:"builtin"`
	Approval      approval.Config               `json:"approval" yaml:"approval"`
	Classify      classify.Config               `json:"classify" yaml:"classify"`
	MaxToolRounds int                           `json:"max_tool_rounds,omitempty" yaml:"max_tool_rounds,omitempty"`
	SystemPrompt  string                        `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`

	// Observers names registered observers that receive kernel events.
	Observers []string `json:"observers,omitempty" yaml:"observers,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Agent:         config.DefaultAgentConfig(),
		Session:       session.DefaultConfig(),
		Memory:        memory.DefaultConfig(),
		Graph:         orchestrate.DefaultGraphConfig("turn"),
		Tools:         tools.DefaultExecutorConfig(),
		Builtin:       builtin.DefaultConfig(),
		Approval:      approval.DefaultConfig(),
		Classify:      classify.DefaultConfig(),
		MaxToolRounds: defaultMaxToolRounds,
		SystemPrompt:  defaultSystemPrompt,
		Observers:     []string{"slog"},
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method. Named agents are merged over the main agent
// config so overrides only need the fields that differ.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Session.Merge(&source.Session)
	c.Memory.Merge(&source.Memory)
	c.Graph.Merge(&source.Graph)
	c.Tools.Merge(&source.Tools)
	c.Builtin.Merge(&source.Builtin)
	c.Approval.Merge(&source.Approval)
	c.Classify.Merge(&source.Classify)

	if source.MaxToolRounds > 0 {
		c.MaxToolRounds = source.MaxToolRounds
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}

	if len(source.Agents) > 0 {
		c.Agents = make(map[string]config.AgentConfig, len(source.Agents))
		for name, override := range source.Agents {
			merged := c.Agent
			merged.Name = name
			merged.Merge(&override)
			c.Agents[name] = merged
		}
	}
}

// LoadConfig reads a JSON or YAML config file, merges it with defaults, and
// returns the resulting Config. Files ending in .yaml or .yml are parsed as
// YAML; anything else as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
