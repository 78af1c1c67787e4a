// Package mock provides a scripted agent for tests and offline use.
package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/assistant/core/protocol"
)

var ErrScriptExhausted = errors.New("mock script exhausted")

// Response is one scripted reply.
type Response struct {
	Message protocol.Message
	Err     error
	Delay   time.Duration
}

// Reply scripts a plain assistant answer.
func Reply(content string) Response {
	return Response{Message: protocol.NewMessage(protocol.RoleAssistant, content)}
}

// Call scripts an assistant message proposing the given tool calls.
func Call(calls ...protocol.ToolCall) Response {
	return Response{Message: protocol.Message{Role: protocol.RoleAssistant, ToolCalls: calls}}
}

// Fail scripts an error.
func Fail(err error) Response {
	return Response{Err: err}
}

// Request records one call made to the agent.
type Request struct {
	Messages []protocol.Message
	Tools    []protocol.Tool
}

// ResponderFunc computes a reply from the request.
type ResponderFunc func(ctx context.Context, req Request) (protocol.Message, error)

// Agent replays scripted responses in order, or delegates to a responder
// function. Every request is recorded.
type Agent struct {
	id        string
	mu        sync.Mutex
	script    []Response
	responder ResponderFunc
	requests  []Request
}

// New creates an agent that replays responses in order and fails with
// ErrScriptExhausted afterwards.
func New(id string, responses ...Response) *Agent {
	return &Agent{id: id, script: responses}
}

// NewFunc creates an agent backed by fn.
func NewFunc(id string, fn ResponderFunc) *Agent {
	return &Agent{id: id, responder: fn}
}

// Echo returns an offline agent. Plain requests are answered with the last
// user text; tool requests summarize the latest tool results.
func Echo() *Agent {
	return NewFunc("mock-echo", echo)
}

func (a *Agent) ID() string   { return a.id }
func (a *Agent) Name() string { return "mock" }

func (a *Agent) Chat(ctx context.Context, messages []protocol.Message) (protocol.Message, error) {
	return a.Complete(ctx, messages, nil)
}

func (a *Agent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	return a.Complete(ctx, messages, tools)
}

// Complete records the request and produces the next reply.
func (a *Agent) Complete(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	req := Request{Messages: protocol.CloneMessages(messages), Tools: tools}

	a.mu.Lock()
	a.requests = append(a.requests, req)
	responder := a.responder
	var (
		next Response
		ok   bool
	)
	if responder == nil && len(a.script) > 0 {
		next, a.script, ok = a.script[0], a.script[1:], true
	}
	a.mu.Unlock()

	if responder != nil {
		return responder(ctx, req)
	}
	if !ok {
		return protocol.Message{}, ErrScriptExhausted
	}

	if next.Delay > 0 {
		select {
		case <-time.After(next.Delay):
		case <-ctx.Done():
			return protocol.Message{}, ctx.Err()
		}
	}
	if next.Err != nil {
		return protocol.Message{}, next.Err
	}
	return next.Message.Clone(), nil
}

// Requests returns every recorded request.
func (a *Agent) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

// Remaining reports how many scripted responses are left.
func (a *Agent) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.script)
}

func echo(_ context.Context, req Request) (protocol.Message, error) {
	var results []string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		if msg.Role != protocol.RoleTool {
			break
		}
		results = append([]string{msg.Content}, results...)
	}
	if len(results) > 0 {
		return protocol.NewMessage(protocol.RoleAssistant, strings.Join(results, "\n")), nil
	}

	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == protocol.RoleUser {
			return protocol.NewMessage(protocol.RoleAssistant, fmt.Sprintf("You said: %s", req.Messages[i].Content)), nil
		}
	}
	return protocol.NewMessage(protocol.RoleAssistant, "Hello from the mock agent."), nil
}
