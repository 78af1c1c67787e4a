package kernel_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := kernel.DefaultConfig()

	if cfg.MaxToolRounds != 8 {
		t.Errorf("got MaxToolRounds %d, want 8", cfg.MaxToolRounds)
	}
	if cfg.SystemPrompt == "" {
		t.Error("default system prompt is empty")
	}
	if cfg.Session.Backend != session.BackendMemory {
		t.Errorf("got session backend %q, want memory", cfg.Session.Backend)
	}
	if cfg.Graph.MaxIterations != 64 {
		t.Errorf("got Graph.MaxIterations %d, want 64", cfg.Graph.MaxIterations)
	}
	if !cfg.Approval.Enabled() {
		t.Error("approval gate disabled by default")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := kernel.DefaultConfig()

	source := &kernel.Config{
		MaxToolRounds: 3,
		SystemPrompt:  "merged prompt",
		Observers:     []string{"noop"},
		Session:       session.Config{Backend: session.BackendFile, Path: "/tmp/sessions"},
	}

	cfg.Merge(source)

	if cfg.MaxToolRounds != 3 {
		t.Errorf("got MaxToolRounds %d, want 3", cfg.MaxToolRounds)
	}
	if cfg.SystemPrompt != "merged prompt" {
		t.Errorf("got SystemPrompt %q, want %q", cfg.SystemPrompt, "merged prompt")
	}
	if len(cfg.Observers) != 1 || cfg.Observers[0] != "noop" {
		t.Errorf("got Observers %v", cfg.Observers)
	}
	if cfg.Session.Backend != session.BackendFile || cfg.Session.Path != "/tmp/sessions" {
		t.Errorf("got Session %+v", cfg.Session)
	}
}

func TestConfig_Merge_ZeroValuesPreserveDefaults(t *testing.T) {
	cfg := kernel.DefaultConfig()
	original := kernel.DefaultConfig()

	cfg.Merge(&kernel.Config{})

	if cfg.MaxToolRounds != original.MaxToolRounds {
		t.Errorf("got MaxToolRounds %d, want %d (preserved default)", cfg.MaxToolRounds, original.MaxToolRounds)
	}
	if cfg.Agent != original.Agent {
		t.Errorf("got Agent %+v, want %+v", cfg.Agent, original.Agent)
	}
	if cfg.SystemPrompt != original.SystemPrompt {
		t.Error("system prompt overwritten by zero value")
	}
}

func TestConfig_Merge_AgentsInheritMainAgent(t *testing.T) {
	cfg := kernel.DefaultConfig()

	cfg.Merge(&kernel.Config{
		Agent: config.AgentConfig{Model: "gpt-4o"},
		Agents: map[string]config.AgentConfig{
			kernel.ClassifierAgent: {Model: "gpt-4o-mini", MaxTokens: 8},
		},
	})

	classifier, ok := cfg.Agents[kernel.ClassifierAgent]
	if !ok {
		t.Fatal("classifier agent missing")
	}
	if classifier.Name != kernel.ClassifierAgent {
		t.Errorf("got Name %q", classifier.Name)
	}
	if classifier.Model != "gpt-4o-mini" || classifier.MaxTokens != 8 {
		t.Errorf("override not applied: %+v", classifier)
	}
	if classifier.Provider != cfg.Agent.Provider || classifier.APIKeyEnv != cfg.Agent.APIKeyEnv {
		t.Errorf("main agent fields not inherited: %+v", classifier)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"max_tool_rounds": 5,
				"system_prompt": "loaded prompt",
				"session": {"backend": "badger", "path": "/tmp/sessions", "ttl": "24h"},
				"tools": {"timeout": "5s"},
				"approval": {"enabled": false}
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
max_tool_rounds: 5
system_prompt: loaded prompt
session:
  backend: badger
  path: /tmp/sessions
  ttl: 24h
tools:
  timeout: 5s
approval:
  enabled: false
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			cfg, err := kernel.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}

			if cfg.MaxToolRounds != 5 {
				t.Errorf("got MaxToolRounds %d, want 5", cfg.MaxToolRounds)
			}
			if cfg.SystemPrompt != "loaded prompt" {
				t.Errorf("got SystemPrompt %q, want %q", cfg.SystemPrompt, "loaded prompt")
			}
			if cfg.Session.Backend != session.BackendBadger || cfg.Session.Path != "/tmp/sessions" {
				t.Errorf("got Session %+v", cfg.Session)
			}
			if cfg.Session.TTL.Std() != 24*time.Hour {
				t.Errorf("got TTL %v, want 24h", cfg.Session.TTL)
			}
			if cfg.Tools.Timeout.Std() != 5*time.Second {
				t.Errorf("got tool timeout %v, want 5s", cfg.Tools.Timeout)
			}
			if cfg.Approval.Enabled() {
				t.Error("approval still enabled")
			}
			if cfg.Agent.Model != config.DefaultAgentConfig().Model {
				t.Errorf("default agent model lost: %q", cfg.Agent.Model)
			}
		})
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := kernel.LoadConfig("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadConfig_InvalidContent(t *testing.T) {
	for _, name := range []string{"bad.json", "bad.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, []byte("{invalid: [}"), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			if _, err := kernel.LoadConfig(path); err == nil {
				t.Fatal("expected parse error, got nil")
			}
		})
	}
}
