// Package agent wraps LLM providers behind a small interface used by the
// classifier, the ambiguity judge and the question handler.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/assistant/agent/mock"
	"github.com/tailored-agentic-units/assistant/agent/providers"
	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/core/protocol"
)

// Agent is a conversational model endpoint.
//
// Chat is a plain completion. Tools offers the given tool schemas and the
// returned assistant message may carry tool calls.
type Agent interface {
	ID() string
	Chat(ctx context.Context, messages []protocol.Message) (protocol.Message, error)
	Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error)
}

// New creates an agent for cfg.Provider. Every call runs under cfg.Timeout
// when it is set.
func New(cfg *config.AgentConfig) (Agent, error) {
	var (
		p   providers.Provider
		err error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		p, err = providers.NewOpenAI(cfg)
	case config.ProviderAnthropic:
		p, err = providers.NewAnthropic(cfg)
	case config.ProviderMock:
		p = mock.Echo()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewWithProvider(cfg, p), nil
}

// NewWithProvider wraps an existing provider.
func NewWithProvider(cfg *config.AgentConfig, p providers.Provider) Agent {
	return &agent{
		id:       uuid.NewString(),
		cfg:      *cfg,
		provider: p,
	}
}

type agent struct {
	id       string
	cfg      config.AgentConfig
	provider providers.Provider
}

func (a *agent) ID() string { return a.id }

func (a *agent) Chat(ctx context.Context, messages []protocol.Message) (protocol.Message, error) {
	return a.complete(ctx, messages, nil)
}

func (a *agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	return a.complete(ctx, messages, tools)
}

func (a *agent) complete(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout.Std())
		defer cancel()
	}

	msg, err := a.provider.Complete(ctx, messages, tools)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("%s (%s/%s): %w", a.cfg.Name, a.provider.Name(), a.cfg.Model, err)
	}
	return msg, nil
}
