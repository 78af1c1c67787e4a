package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/session"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, errOut.String())
	}
	return out.String()
}

func TestAsk_JSON(t *testing.T) {
	out := execute(t, "", "ask", "--provider", "mock", "--json", "hello")

	var res kernel.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Intent != session.IntentGreeting || res.Response != kernel.GreetingResponse {
		t.Errorf("got %+v", res)
	}
}

func TestChat_Loop(t *testing.T) {
	out := execute(t, "Tell me a joke\n/history\n/quit\n", "chat", "--provider", "mock", "--session", "chat-1")

	if !strings.Contains(out, "You said: Tell me a joke") {
		t.Errorf("missing echo reply in:\n%s", out)
	}
	if !strings.Contains(out, "user") || !strings.Contains(out, "assistant") {
		t.Errorf("missing history in:\n%s", out)
	}
}

func TestForget_FileStore(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--provider", "mock", "--store", "file", "--store-path", dir}

	execute(t, "", append([]string{"ask", "--session", "s1"}, append(common, "hello")...)...)

	store, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background(), "s1"); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	out := execute(t, "", append([]string{"forget", "s1"}, common...)...)
	if !strings.Contains(out, "forgot session s1") {
		t.Errorf("got %q", out)
	}
	if _, err := store.Load(context.Background(), "s1"); err == nil {
		t.Error("session still stored after forget")
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	opts := &options{provider: "mock", model: "scripted", store: "badger", storePath: "/tmp/x", systemPrompt: "be brief"}

	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agent.Provider != "mock" || cfg.Agent.Model != "scripted" {
		t.Errorf("got agent %+v", cfg.Agent)
	}
	if cfg.Session.Backend != "badger" || cfg.Session.Path != "/tmp/x" {
		t.Errorf("got session %+v", cfg.Session)
	}
	if cfg.SystemPrompt != "be brief" {
		t.Errorf("got system prompt %q", cfg.SystemPrompt)
	}
}
