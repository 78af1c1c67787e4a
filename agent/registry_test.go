package agent_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/assistant/agent"
	"github.com/tailored-agentic-units/assistant/agent/mock"
	"github.com/tailored-agentic-units/assistant/core/config"
)

func mockConfig(model string) config.AgentConfig {
	return config.AgentConfig{Name: model, Provider: config.ProviderMock, Model: model}
}

func TestRegistry_Resolve(t *testing.T) {
	fallback := mock.New("main")
	judge := mock.New("judge")

	r := agent.NewRegistry(fallback)
	if err := r.Use("judge", judge); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("classifier", mockConfig("small")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		role   string
		wantID string
	}{
		{"judge", "judge"},
		{"summarizer", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			a, err := r.Resolve(tt.role)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if a.ID() != tt.wantID {
				t.Errorf("Resolve(%q) = %s, want %s", tt.role, a.ID(), tt.wantID)
			}
		})
	}

	first, err := r.Resolve("classifier")
	if err != nil {
		t.Fatalf("Resolve(classifier) error = %v", err)
	}
	second, _ := r.Resolve("classifier")
	if first != second {
		t.Error("config-bound agent should be built once and cached")
	}
	if first == agent.Agent(fallback) {
		t.Error("classifier should not share the fallback agent")
	}
}

func TestRegistry_ResolveWithoutFallback(t *testing.T) {
	r := agent.NewRegistry(nil)

	if _, err := r.Resolve("judge"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("error = %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_ResolveUnknownProvider(t *testing.T) {
	r := agent.NewRegistry(nil)
	if err := r.Register("judge", config.AgentConfig{Provider: "carrier-pigeon"}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve("judge"); !errors.Is(err, agent.ErrUnknownProvider) {
		t.Errorf("error = %v, want ErrUnknownProvider", err)
	}
}

func TestRegistry_BindingErrors(t *testing.T) {
	r := agent.NewRegistry(nil)
	if err := r.Register("judge", mockConfig("a")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"register empty", func() error { return r.Register("", mockConfig("a")) }, agent.ErrEmptyAgentName},
		{"register duplicate", func() error { return r.Register("judge", mockConfig("b")) }, agent.ErrAgentExists},
		{"use duplicate", func() error { return r.Use("judge", mock.New("x")) }, agent.ErrAgentExists},
		{"use nil", func() error { return r.Use("other", nil) }, agent.ErrAgentNotFound},
		{"replace empty", func() error { return r.Replace("", mockConfig("a")) }, agent.ErrEmptyAgentName},
		{"replace unknown", func() error { return r.Replace("other", mockConfig("a")) }, agent.ErrAgentNotFound},
		{"unregister unknown", func() error { return r.Unregister("other") }, agent.ErrAgentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_ReplaceDropsCachedAgent(t *testing.T) {
	r := agent.NewRegistry(nil)
	if err := r.Register("judge", mockConfig("small")); err != nil {
		t.Fatal(err)
	}
	before, _ := r.Resolve("judge")

	if err := r.Replace("judge", mockConfig("large")); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	after, _ := r.Resolve("judge")
	if before == after {
		t.Error("Replace should rebuild the agent")
	}

	info, err := r.Info("judge")
	if err != nil || info.Model != "large" {
		t.Errorf("Info() = %+v, %v", info, err)
	}
}

func TestRegistry_UnregisterFallsBack(t *testing.T) {
	fallback := mock.New("main")
	r := agent.NewRegistry(fallback)
	_ = r.Use("judge", mock.New("judge"))

	if err := r.Unregister("judge"); err != nil {
		t.Fatal(err)
	}
	if r.Has("judge") {
		t.Error("Has(judge) after Unregister")
	}
	if a, _ := r.Resolve("judge"); a.ID() != "main" {
		t.Errorf("Resolve() = %s, want fallback", a.ID())
	}
}

func TestRegistry_List(t *testing.T) {
	r := agent.NewRegistry(nil)
	_ = r.Register("judge", mockConfig("j"))
	_ = r.Use("classifier", mock.New("c"))

	infos := r.List()
	want := []agent.RoleInfo{
		{Role: "classifier", Provider: "custom"},
		{Role: "judge", Provider: config.ProviderMock, Model: "j"},
	}
	if len(infos) != len(want) {
		t.Fatalf("List() = %+v", infos)
	}
	for i := range want {
		if infos[i] != want[i] {
			t.Errorf("List()[%d] = %+v, want %+v", i, infos[i], want[i])
		}
	}

	if _, err := r.Info("missing"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("Info(missing) error = %v", err)
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	r := agent.NewRegistry(nil)
	_ = r.Register("judge", mockConfig("j"))

	var wg sync.WaitGroup
	got := make([]agent.Agent, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = r.Resolve("judge")
		}()
	}
	wg.Wait()

	for _, a := range got[1:] {
		if a != got[0] {
			t.Fatal("concurrent Resolve built more than one agent")
		}
	}
}
