package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/agent"
	"github.com/tailored-agentic-units/assistant/agent/mock"
	"github.com/tailored-agentic-units/assistant/agent/providers"
	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/core/protocol"
)

func TestNew_Providers(t *testing.T) {
	t.Setenv("ASSISTANT_TEST_KEY", "sk-test")

	tests := []struct {
		name    string
		cfg     config.AgentConfig
		wantErr error
	}{
		{name: "mock", cfg: config.AgentConfig{Provider: config.ProviderMock}},
		{name: "openai", cfg: config.AgentConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", APIKeyEnv: "ASSISTANT_TEST_KEY"}},
		{name: "openai local without key", cfg: config.AgentConfig{Provider: config.ProviderOpenAI, Model: "llama3", BaseURL: "http://localhost:11434/v1"}},
		{name: "openai missing key", cfg: config.AgentConfig{Provider: config.ProviderOpenAI, APIKeyEnv: "ASSISTANT_UNSET_KEY"}, wantErr: providers.ErrMissingAPIKey},
		{name: "anthropic", cfg: config.AgentConfig{Provider: config.ProviderAnthropic, Model: "claude-3-5-haiku-latest", APIKeyEnv: "ASSISTANT_TEST_KEY"}},
		{name: "anthropic missing key", cfg: config.AgentConfig{Provider: config.ProviderAnthropic, APIKeyEnv: "ASSISTANT_UNSET_KEY"}, wantErr: providers.ErrMissingAPIKey},
		{name: "unknown", cfg: config.AgentConfig{Provider: "nope"}, wantErr: agent.ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := agent.New(&tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if a.ID() == "" {
				t.Error("agent has empty ID")
			}
		})
	}
}

func TestAgent_TimeoutApplied(t *testing.T) {
	cfg := config.AgentConfig{Name: "slow", Model: "m", Timeout: config.Duration(20 * time.Millisecond)}
	slow := mock.New("slow", mock.Response{Message: protocol.NewMessage(protocol.RoleAssistant, "late"), Delay: time.Second})

	a := agent.NewWithProvider(&cfg, slow)

	start := time.Now()
	_, err := a.Chat(context.Background(), []protocol.Message{protocol.NewMessage(protocol.RoleUser, "hi")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Chat() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout not applied")
	}
	if !strings.Contains(err.Error(), "slow") {
		t.Errorf("error %q does not name the agent", err)
	}
}

func TestAgent_ToolsPassesSchemas(t *testing.T) {
	cfg := config.AgentConfig{Name: "answer"}
	p := mock.New("p", mock.Reply("ok"))
	a := agent.NewWithProvider(&cfg, p)

	schemas := []protocol.Tool{{Name: "calculator"}, {Name: "get_weather"}}
	if _, err := a.Tools(context.Background(), nil, schemas); err != nil {
		t.Fatalf("Tools() error: %v", err)
	}

	reqs := p.Requests()
	if len(reqs) != 1 || len(reqs[0].Tools) != 2 {
		t.Errorf("provider saw %+v", reqs)
	}
}
