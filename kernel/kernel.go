// Package kernel runs conversation turns.
//
// A turn appends the user's message to the session log, classifies its
// intent and either answers with a fixed greeting or farewell or enters the
// question loop: the agent answers with the full log and the tool schemas,
// proposed tool calls pass the approval gate and run concurrently, and their
// results go back to the agent until it answers without tools. A blocked
// approval ends the turn with a clarification prompt.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options replace any subsystem, mostly for tests.
//
//	k, err := kernel.New(&cfg)
//	result, err := k.Run(ctx, "session-1", "What's the weather in Boston, MA?")
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/assistant/agent"
	"github.com/tailored-agentic-units/assistant/approval"
	"github.com/tailored-agentic-units/assistant/classify"
	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/memory"
	"github.com/tailored-agentic-units/assistant/observability"
	orchestrate "github.com/tailored-agentic-units/assistant/orchestrate/config"
	"github.com/tailored-agentic-units/assistant/orchestrate/state"
	"github.com/tailored-agentic-units/assistant/session"
	"github.com/tailored-agentic-units/assistant/tools"
	"github.com/tailored-agentic-units/assistant/tools/builtin"
)

const runSource = "kernel.Run"

// Option configures a Kernel. Subsystems set by options are not built from
// configuration.
type Option func(*Kernel)

// WithAgent sets the agent that answers questions. Unless overridden it
// also backs the classifier and the ambiguity judge.
func WithAgent(a agent.Agent) Option {
	return func(k *Kernel) { k.agent = a }
}

// WithClassifier replaces the configured intent classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(k *Kernel) { k.classifier = c }
}

// WithJudge replaces the LLM ambiguity judge.
func WithJudge(j approval.Judge) Option {
	return func(k *Kernel) { k.judge = j }
}

// WithRegistry sets the registry used to resolve role agents.
func WithRegistry(r *agent.Registry) Option {
	return func(k *Kernel) { k.registry = r }
}

// WithStore replaces the configured session store.
func WithStore(s session.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithMemoryStore replaces the configured memory store.
func WithMemoryStore(s memory.Store) Option {
	return func(k *Kernel) { k.memory = s }
}

// WithObserver replaces the configured observers.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithTools replaces the built-in tool registry.
func WithTools(r *tools.Registry) Option {
	return func(k *Kernel) { k.tools = r }
}

// Kernel executes turns against a session store. It is safe for concurrent
// use; turns for the same session are serialized.
type Kernel struct {
	agent      agent.Agent
	registry   *agent.Registry
	classifier classify.Classifier
	judge      approval.Judge
	validator  *approval.Validator
	tools      *tools.Registry
	executor   *tools.Executor
	store      session.Store
	memory     memory.Store
	locker     *session.Locker
	observer   observability.Observer
	graph      *state.Graph[turnState, turnDelta]

	maxToolRounds  int
	systemPrompt   string
	memoryMaxBytes int
}

// New creates a Kernel from configuration.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		locker:         session.NewLocker(),
		maxToolRounds:  cfg.MaxToolRounds,
		systemPrompt:   cfg.SystemPrompt,
		memoryMaxBytes: cfg.Memory.MaxBytes,
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.maxToolRounds <= 0 {
		k.maxToolRounds = defaultMaxToolRounds
	}

	if k.observer == nil {
		obs, err := observability.Resolve(cfg.Observers...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observers: %w", err)
		}
		k.observer = obs
	}

	if k.agent == nil {
		a, err := agent.New(&cfg.Agent)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		k.agent = a
	}

	if k.registry == nil {
		k.registry = agent.NewRegistry(k.agent)
		for name, agentCfg := range cfg.Agents {
			if err := k.registry.Register(name, agentCfg); err != nil {
				return nil, fmt.Errorf("failed to register agent %s: %w", name, err)
			}
		}
	}

	if k.classifier == nil {
		chat, err := k.registry.Resolve(ClassifierAgent)
		if err != nil {
			return nil, err
		}
		c, err := classify.New(cfg.Classify, chat, k.observer)
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
		k.classifier = c
	}

	if k.judge == nil {
		judgeAgent, err := k.registry.Resolve(JudgeAgent)
		if err != nil {
			return nil, err
		}
		k.judge = approval.NewLLMJudge(judgeAgent)
	}
	k.validator = approval.NewValidator(cfg.Approval, k.judge, k.observer)

	if k.tools == nil {
		k.tools = tools.NewRegistry()
		if err := builtin.RegisterAll(k.tools, cfg.Builtin); err != nil {
			return nil, fmt.Errorf("failed to register tools: %w", err)
		}
	}
	k.executor = tools.NewExecutor(k.tools, cfg.Tools, k.observer)

	if k.store == nil {
		s, err := session.NewStore(&cfg.Session, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		k.store = s
	}

	if k.memory == nil {
		k.memory = memory.NewStore(&cfg.Memory)
	}

	g, err := k.buildGraph(graphConfig(cfg.Graph, k.maxToolRounds))
	if err != nil {
		return nil, fmt.Errorf("failed to build turn graph: %w", err)
	}
	k.graph = g

	return k, nil
}

// graphConfig raises the iteration limit so that a turn using every tool
// round still reaches the round-limit reply. Such a turn runs classify and
// answer once, then validate, execute and answer per round.
func graphConfig(cfg orchestrate.GraphConfig, maxToolRounds int) orchestrate.GraphConfig {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = orchestrate.DefaultGraphConfig(cfg.Name).MaxIterations
	}
	cfg.MaxIterations = max(cfg.MaxIterations, 3*maxToolRounds+2)
	return cfg
}

// Run processes one user message for the session and commits the resulting
// state. On error nothing is saved and the returned error is a *TurnError.
func (k *Kernel) Run(ctx context.Context, sessionID, text string) (*Result, error) {
	ctx, span := otel.Tracer("assistant/kernel").Start(ctx, runSource,
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	start := time.Now()

	if err := session.ValidateID(sessionID); err != nil {
		return nil, k.fail(ctx, span, sessionID, StageInput, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	unlock, err := k.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, k.fail(ctx, span, sessionID, StageLock, err)
	}
	defer unlock()

	snap, err := k.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		snap = session.New()
	case err != nil:
		return nil, k.fail(ctx, span, sessionID, StageLoad, fmt.Errorf("%w: %w", ErrSessionStore, err))
	}

	observability.Emit(ctx, k.observer, EventRunStart, observability.LevelVerbose, runSource, map[string]any{
		"session_id": sessionID,
		"history":    len(snap.Messages),
	})

	turnStart := len(snap.Messages)
	initial := turnState{
		Snapshot: session.Apply(snap, session.Append(protocol.NewMessage(protocol.RoleUser, text))),
	}

	system, err := memory.Compose(ctx, k.memory, k.systemPrompt, k.memoryMaxBytes)
	if err != nil {
		initial.degraded = append(initial.degraded, "memory: "+err.Error())
	}
	initial.system = system

	final, err := k.graph.Execute(ctx, initial)
	if err != nil {
		stage := StageGraph
		if errors.Is(err, ErrAnswerGeneration) {
			stage = StageAnswer
		}
		return nil, k.fail(ctx, span, sessionID, stage, err)
	}

	if err := final.Validate(); err != nil {
		return nil, k.fail(ctx, span, sessionID, StageGraph, err)
	}

	if err := k.store.Save(ctx, sessionID, final.Snapshot); err != nil {
		return nil, k.fail(ctx, span, sessionID, StageSave, fmt.Errorf("%w: %w", ErrSessionStore, err))
	}

	result := newResult(sessionID, final, turnStart)

	for _, reason := range result.Degraded {
		observability.Emit(ctx, k.observer, EventDegraded, observability.LevelWarning, runSource, map[string]any{
			"session_id": sessionID,
			"reason":     reason,
		})
	}

	span.SetAttributes(
		attribute.String("turn.intent", string(result.Intent)),
		attribute.Int("turn.exchange_count", result.ExchangeCount),
		attribute.Bool("turn.needs_approval", result.NeedsApproval),
	)

	observability.Emit(ctx, k.observer, EventRunComplete, observability.LevelInfo, runSource, map[string]any{
		"session_id":     sessionID,
		"intent":         string(result.Intent),
		"exchange_count": result.ExchangeCount,
		"tool_calls":     len(result.ToolCalls),
		"needs_approval": result.NeedsApproval,
		"duration":       time.Since(start),
	})

	return result, nil
}

func (k *Kernel) fail(ctx context.Context, span trace.Span, sessionID string, stage Stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))

	observability.Emit(ctx, k.observer, EventRunFailed, observability.LevelError, runSource, map[string]any{
		"session_id": sessionID,
		"stage":      string(stage),
		"error":      err.Error(),
	})
	return &TurnError{SessionID: sessionID, Stage: stage, Err: err}
}

// History returns the committed state of a session. It fails with
// session.ErrNotFound for unknown sessions.
func (k *Kernel) History(ctx context.Context, sessionID string) (session.Snapshot, error) {
	if err := session.ValidateID(sessionID); err != nil {
		return session.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	snap, err := k.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.Snapshot{}, err
		}
		return session.Snapshot{}, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return snap, nil
}

// Reset deletes all state of a session. It waits for a running turn of the
// same session to finish.
func (k *Kernel) Reset(ctx context.Context, sessionID string) error {
	if err := session.ValidateID(sessionID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	unlock, err := k.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := k.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return nil
}

// Tools lists the tools offered to the agent.
func (k *Kernel) Tools() []protocol.Tool {
	return k.tools.List()
}

// Close releases the session store.
func (k *Kernel) Close() error {
	return k.store.Close()
}
