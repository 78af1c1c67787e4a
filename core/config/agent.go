// Package config defines shared configuration types for agents.
package config

import (
	"os"
	"time"
)

// Provider names accepted by AgentConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// AgentConfig describes one LLM-backed agent.
//
// Provider "openai" speaks the chat-completions API and, with BaseURL, any
// compatible server (Ollama, vLLM, LM Studio). The API key is read from the
// environment variable named by APIKeyEnv so secrets stay out of files.
type AgentConfig struct {
	Name      string   `json:"name" yaml:"name"`
	Provider  string   `json:"provider" yaml:"provider"`
	Model     string   `json:"model" yaml:"model"`
	BaseURL   string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKeyEnv string   `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	Timeout   Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxTokens int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// DefaultAgentConfig returns an OpenAI gpt-4o-mini agent with a 60s timeout.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Name:      "assistant",
		Provider:  ProviderOpenAI,
		Model:     "gpt-4o-mini",
		APIKeyEnv: "OPENAI_API_KEY",
		Timeout:   Duration(60 * time.Second),
		MaxTokens: 1024,
	}
}

// Merge copies non-zero fields from source. Switching provider without
// naming a key variable picks that provider's conventional variable.
func (c *AgentConfig) Merge(source *AgentConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Provider != "" && source.Provider != c.Provider {
		c.Provider = source.Provider
		c.APIKeyEnv = defaultKeyEnv(source.Provider)
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKeyEnv != "" {
		c.APIKeyEnv = source.APIKeyEnv
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
}

// APIKey resolves the key from the environment.
func (c *AgentConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
