package kernel

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/observability"
	orchestrate "github.com/tailored-agentic-units/assistant/orchestrate/config"
	"github.com/tailored-agentic-units/assistant/orchestrate/state"
	"github.com/tailored-agentic-units/assistant/session"
	"github.com/tailored-agentic-units/assistant/tools"
)

// Node names of the turn graph.
const (
	NodeClassify = "classify_intent"
	NodeGreeting = "greeting"
	NodeFarewell = "farewell"
	NodeAnswer   = "answer_question"
	NodeValidate = "validate_tools"
	NodeExecute  = "execute_tools"
)

// Fixed responses of the greeting and farewell handlers.
const (
	GreetingResponse   = "Hello! I can do arithmetic, look up the weather and search the web. What would you like to know?"
	FarewellResponse   = "Goodbye! Feel free to come back any time."
	RoundLimitResponse = "I'm sorry, I was unable to complete that request: it needed more tool calls than I am allowed to make in one turn. Please try a simpler or more specific question."
)

const turnSource = "kernel.turn"

// turnState is the graph state of one turn: the session snapshot plus
// bookkeeping that is reported in the Result but never persisted.
type turnState struct {
	session.Snapshot
	system   string
	rounds   int
	executed []ToolCallRecord
	degraded []string
}

// turnDelta is what a node returns.
type turnDelta struct {
	session.Delta
	round    bool
	executed []ToolCallRecord
	degraded []string
}

func reduceTurn(s turnState, d turnDelta) turnState {
	out := turnState{
		Snapshot: session.Apply(s.Snapshot, d.Delta),
		system:   s.system,
		rounds:   s.rounds,
		executed: append(append([]ToolCallRecord(nil), s.executed...), d.executed...),
		degraded: append(append([]string(nil), s.degraded...), d.degraded...),
	}
	if d.round {
		out.rounds++
	}
	return out
}

// lastAssistant returns the most recent message when it is an assistant
// message.
func (s turnState) lastAssistant() (protocol.Message, bool) {
	last, ok := s.Last()
	if !ok || last.Role != protocol.RoleAssistant {
		return protocol.Message{}, false
	}
	return last, true
}

// buildGraph wires the turn state machine. Greeting and farewell are exit
// points.
//
//	classify_intent -> greeting | farewell | answer_question
//	answer_question -> validate_tools | End
//	validate_tools  -> execute_tools | End
//	execute_tools   -> answer_question
func (k *Kernel) buildGraph(cfg orchestrate.GraphConfig) (*state.Graph[turnState, turnDelta], error) {
	g, err := state.NewGraphWithDeps[turnState, turnDelta](cfg, reduceTurn, k.observer)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		fn   state.NodeFunc[turnState, turnDelta]
	}{
		{NodeClassify, k.classifyNode},
		{NodeGreeting, fixedReply(GreetingResponse)},
		{NodeFarewell, fixedReply(FarewellResponse)},
		{NodeAnswer, k.answerNode},
		{NodeValidate, k.validateNode},
		{NodeExecute, k.executeNode},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.name, n.fn); err != nil {
			return nil, err
		}
	}

	if err := g.AddRouter(NodeClassify, routeIntent, NodeGreeting, NodeFarewell, NodeAnswer); err != nil {
		return nil, err
	}
	for _, exit := range []string{NodeGreeting, NodeFarewell} {
		if err := g.SetExitPoint(exit); err != nil {
			return nil, err
		}
	}

	edges := []struct {
		from, to string
		when     state.Predicate[turnState]
	}{
		{NodeAnswer, NodeValidate, proposesTools},
		{NodeAnswer, state.End, state.Not[turnState](proposesTools)},
		{NodeValidate, state.End, awaitingApproval},
		{NodeValidate, NodeExecute, state.Not[turnState](awaitingApproval)},
		{NodeExecute, NodeAnswer, state.Always[turnState]()},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.from, e.to, e.when); err != nil {
			return nil, err
		}
	}
	if err := g.SetEntryPoint(NodeClassify); err != nil {
		return nil, err
	}

	return g, g.Validate()
}

func routeIntent(s turnState) string {
	switch s.Turn.Intent {
	case session.IntentGreeting:
		return NodeGreeting
	case session.IntentFarewell:
		return NodeFarewell
	default:
		return NodeAnswer
	}
}

func proposesTools(s turnState) bool {
	msg, ok := s.lastAssistant()
	return ok && msg.HasToolCalls()
}

func awaitingApproval(s turnState) bool {
	return s.Turn.NeedsApproval
}

// classifyNode records the intent of the latest user message and clears
// approval fields left by a previous blocked turn.
func (k *Kernel) classifyNode(ctx context.Context, s turnState) (turnDelta, error) {
	res, err := k.classifier.Classify(ctx, s.LastUserText())
	if err != nil {
		return turnDelta{}, fmt.Errorf("classification: %w", err)
	}

	intent := res.Intent
	if _, ok := session.ParseIntent(string(intent)); !ok {
		intent = session.IntentQuestion
	}

	observability.Emit(ctx, k.observer, EventIntent, observability.LevelVerbose, turnSource, map[string]any{
		"intent":   string(intent),
		"source":   res.Source,
		"degraded": res.Degraded,
	})

	d := turnDelta{Delta: session.SetIntent(intent).Merge(session.ClearApproval())}
	if res.Degraded {
		d.degraded = []string{"classification: " + res.Reason}
	}
	return d, nil
}

func fixedReply(text string) state.NodeFunc[turnState, turnDelta] {
	return func(_ context.Context, s turnState) (turnDelta, error) {
		d := session.Append(protocol.NewMessage(protocol.RoleAssistant, text)).
			Merge(session.SetExchangeCount(s.Turn.ExchangeCount + 1))
		return turnDelta{Delta: d}, nil
	}
}

// answerNode sends the full log and the tool schemas to the agent. Once the
// round limit is spent it answers with RoundLimitResponse instead.
func (k *Kernel) answerNode(ctx context.Context, s turnState) (turnDelta, error) {
	if s.rounds >= k.maxToolRounds {
		observability.Emit(ctx, k.observer, EventRoundLimit, observability.LevelWarning, turnSource, map[string]any{
			"rounds": s.rounds,
		})
		return turnDelta{
			Delta:    session.Append(protocol.NewMessage(protocol.RoleAssistant, RoundLimitResponse)),
			degraded: []string{fmt.Sprintf("tool round limit (%d) reached", k.maxToolRounds)},
		}, nil
	}

	messages := make([]protocol.Message, 0, len(s.Messages)+1)
	if s.system != "" {
		messages = append(messages, protocol.NewMessage(protocol.RoleSystem, s.system))
	}
	messages = append(messages, s.Messages...)

	reply, err := k.agent.Tools(ctx, messages, k.tools.List())
	if err != nil {
		return turnDelta{}, fmt.Errorf("%w: %w", ErrAnswerGeneration, err)
	}
	reply.Role = protocol.RoleAssistant
	reply.ToolCallID = ""

	d := session.Append(reply).Merge(session.SetExchangeCount(s.Turn.ExchangeCount + 1))
	return turnDelta{Delta: d}, nil
}

// validateNode runs the approval gate over the calls just proposed. A
// blocked batch gets one placeholder result per call, then the prompt as the
// assistant's reply, and the turn ends.
func (k *Kernel) validateNode(ctx context.Context, s turnState) (turnDelta, error) {
	msg, _ := s.lastAssistant()
	decision := k.validator.Validate(ctx, msg.ToolCalls)

	var d turnDelta
	for _, value := range decision.Unjudged {
		d.degraded = append(d.degraded, fmt.Sprintf("ambiguity check failed for %q", value))
	}
	if !decision.Blocked {
		return d, nil
	}

	observability.Emit(ctx, k.observer, EventApprovalRequired, observability.LevelInfo, turnSource, map[string]any{
		"pending": len(decision.Pending),
	})

	msgs := append(protocol.CloneMessages(decision.Placeholders), protocol.NewMessage(protocol.RoleAssistant, decision.Prompt))
	d.Delta = session.Append(msgs...).Merge(session.RequestApproval(decision.Prompt, decision.Pending))
	return d, nil
}

// executeNode runs the proposed calls concurrently and appends one result
// per call.
func (k *Kernel) executeNode(ctx context.Context, s turnState) (turnDelta, error) {
	msg, _ := s.lastAssistant()
	outcomes := k.executor.Execute(ctx, msg.ToolCalls)

	round := s.rounds + 1
	records := make([]ToolCallRecord, len(outcomes))
	for i, o := range outcomes {
		records[i] = ToolCallRecord{
			Call:     o.Call,
			Round:    round,
			Result:   o.Content(),
			IsError:  o.Failed(),
			Duration: o.Duration,
		}
	}

	return turnDelta{
		Delta:    session.Append(tools.Messages(outcomes)...).Merge(session.ClearApproval()),
		round:    true,
		executed: records,
	}, nil
}
