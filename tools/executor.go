package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/orchestrate/config"
	"github.com/tailored-agentic-units/assistant/orchestrate/workflows"
)

const executorSource = "tools.Executor"

// Outcome is the settled result of one tool call.
type Outcome struct {
	Call     protocol.ToolCall
	Result   Result
	Err      error
	Duration time.Duration
}

// Failed reports whether the call produced an error result.
func (o Outcome) Failed() bool {
	return o.Err != nil || o.Result.IsError
}

// Content is the text recorded in the conversation for this call.
func (o Outcome) Content() string {
	if o.Err != nil {
		return "error: " + o.Err.Error()
	}
	return o.Result.Content
}

// Message builds the tool-result message answering the call.
func (o Outcome) Message() protocol.Message {
	return protocol.NewToolResult(o.Call.ID, o.Content())
}

// Messages builds one tool-result message per outcome, in order.
func Messages(outcomes []Outcome) []protocol.Message {
	msgs := make([]protocol.Message, len(outcomes))
	for i, o := range outcomes {
		msgs[i] = o.Message()
	}
	return msgs
}

// Executor runs a batch of tool calls concurrently against a Registry.
type Executor struct {
	registry *Registry
	cfg      ExecutorConfig
	observer observability.Observer
}

func NewExecutor(registry *Registry, cfg ExecutorConfig, observer observability.Observer) *Executor {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Executor{registry: registry, cfg: cfg, observer: observer}
}

type indexedCall struct {
	index int
	call  protocol.ToolCall
}

// Execute runs every call at once and waits for all of them to settle.
// It returns exactly one Outcome per call, in input order. Failures of
// individual calls (unknown tool, handler error, timeout, panic) are
// recorded on their Outcome and never affect the others.
func (e *Executor) Execute(ctx context.Context, calls []protocol.ToolCall) []Outcome {
	outcomes := make([]Outcome, len(calls))
	if len(calls) == 0 {
		return outcomes
	}

	items := make([]indexedCall, len(calls))
	for i, call := range calls {
		items[i] = indexedCall{index: i, call: call}
	}

	workers := e.cfg.MaxWorkers
	if workers <= 0 {
		workers = len(calls)
	}

	res, _ := workflows.ProcessParallelWithObserver(
		ctx,
		config.CollectAllConfig(workers),
		e.observer,
		items,
		func(ctx context.Context, item indexedCall) (Outcome, error) {
			return e.run(ctx, item.call), nil
		},
		nil,
	)

	// Results are dense and ordered; failed items are only panics that
	// escaped run.
	filled := make([]bool, len(calls))
	for _, taskErr := range res.Errors {
		i := taskErr.Item.index
		outcomes[i] = Outcome{Call: taskErr.Item.call, Err: taskErr.Err}
		filled[i] = true
		e.complete(ctx, outcomes[i])
	}
	next := 0
	for i := range outcomes {
		if filled[i] {
			continue
		}
		outcomes[i] = res.Results[next]
		next++
	}
	return outcomes
}

func (e *Executor) run(ctx context.Context, call protocol.ToolCall) Outcome {
	observability.Emit(ctx, e.observer, EventToolStart, observability.LevelVerbose, executorSource, map[string]any{
		"tool":    call.Name,
		"call_id": call.ID,
	})

	start := time.Now()
	out := Outcome{Call: call}

	out.Result, out.Err = e.invoke(ctx, call)
	out.Duration = time.Since(start)

	e.complete(ctx, out)
	return out
}

type reply struct {
	result Result
	err    error
}

// invoke runs the handler on its own goroutine so a handler that ignores
// cancellation cannot hold the call past its deadline. The abandoned
// goroutine finishes in the background and its reply is dropped.
func (e *Executor) invoke(ctx context.Context, call protocol.ToolCall) (Result, error) {
	args, err := call.ArgumentsJSON()
	if err != nil {
		return Result{}, err
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("tool %s panicked: %v", call.Name, r)}
			}
		}()
		result, err := e.registry.Execute(callCtx, call.Name, args)
		done <- reply{result: result, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && e.expired(ctx, callCtx) {
			return Result{}, e.timeoutError(call)
		}
		return r.result, r.err
	case <-callCtx.Done():
		if e.expired(ctx, callCtx) {
			return Result{}, e.timeoutError(call)
		}
		return Result{}, fmt.Errorf("tool %s: %w", call.Name, callCtx.Err())
	}
}

// expired reports whether the per-call deadline, not the caller, ended callCtx.
func (e *Executor) expired(ctx, callCtx context.Context) bool {
	return errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
}

func (e *Executor) timeoutError(call protocol.ToolCall) error {
	return fmt.Errorf("%w: %s after %s", ErrTimeout, call.Name, e.cfg.Timeout)
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout.Std())
	}
	return context.WithCancel(ctx)
}

func (e *Executor) complete(ctx context.Context, out Outcome) {
	level := observability.LevelInfo
	data := map[string]any{
		"tool":     out.Call.Name,
		"call_id":  out.Call.ID,
		"is_error": out.Failed(),
		"duration": out.Duration,
	}
	if out.Err != nil {
		level = observability.LevelWarning
		data["error"] = out.Err.Error()
	}
	observability.Emit(ctx, e.observer, EventToolComplete, level, executorSource, data)
}
