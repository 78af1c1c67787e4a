// Package classify maps the latest user message to an intent.
//
// KeywordClassifier is deterministic and never fails. LLMClassifier asks a
// model for a label and falls back to the keyword rules when the model is
// unavailable or answers with something unusable; such results are marked
// Degraded.
package classify

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/session"
)

const (
	SourceKeyword = "keyword"
	SourceLLM     = "llm"
)

// Result is a classification decision. Intent is never IntentUnknown.
type Result struct {
	Intent   session.Intent
	Source   string
	Degraded bool
	Reason   string
}

// Classifier decides the intent of a user message.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// ChatAgent is the part of an agent the LLM classifier needs.
type ChatAgent interface {
	Chat(ctx context.Context, messages []protocol.Message) (protocol.Message, error)
}

// Config selects the classifier.
type Config struct {
	// Type is "keyword" or "llm".
	Type string `json:"type" yaml:"type"`
}

func DefaultConfig() Config {
	return Config{Type: SourceLLM}
}

func (c *Config) Merge(source *Config) {
	if source.Type != "" {
		c.Type = source.Type
	}
}

// New builds the configured classifier. The llm type needs a chat agent.
func New(cfg Config, chat ChatAgent, observer observability.Observer) (Classifier, error) {
	switch cfg.Type {
	case "", SourceLLM:
		if chat == nil {
			return nil, fmt.Errorf("llm classifier requires an agent")
		}
		return NewLLMClassifier(chat, observer), nil
	case SourceKeyword:
		return NewKeywordClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.Type)
	}
}
