// Package approval decides whether proposed tool calls may run or must wait
// for the user to clarify them.
//
// The current policy inspects one argument of one tool (the weather
// location by default). Single-word values are sent to a Judge; an
// ambiguous answer blocks the whole batch. Judge failures fail open.
package approval

import (
	"context"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/observability"
)

const validatorSource = "approval.Validator"

// Judge decides whether a place name could refer to more than one place.
type Judge interface {
	Ambiguous(ctx context.Context, location string) (bool, error)
}

// Decision is the outcome of validating one batch of tool calls.
//
// When Blocked, Prompt asks the user to clarify, Pending holds a copy of
// every call in the batch and Placeholders holds one tool-result message
// per call so the log stays correlated. Unjudged lists values the judge
// failed on; they were let through.
type Decision struct {
	Blocked      bool
	Prompt       string
	Pending      []protocol.ToolCall
	Placeholders []protocol.Message
	Ambiguous    []string
	Unjudged     []string
}

// Validator applies the policy to proposed tool calls.
type Validator struct {
	cfg      Config
	judge    Judge
	observer observability.Observer
}

func NewValidator(cfg Config, judge Judge, observer observability.Observer) *Validator {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Validator{cfg: cfg, judge: judge, observer: observer}
}

// Validate returns an approving Decision unless a checked argument is
// judged ambiguous.
func (v *Validator) Validate(ctx context.Context, calls []protocol.ToolCall) Decision {
	if !v.cfg.Enabled() || v.judge == nil {
		return Decision{}
	}

	var ambiguous, unjudged []string
	blockedIDs := make(map[string]bool)

	for _, call := range calls {
		value, ok := v.checkedValue(call)
		if !ok {
			continue
		}

		isAmbiguous, err := v.judge.Ambiguous(ctx, value)
		if err != nil {
			observability.Emit(ctx, v.observer, EventJudgeFailed, observability.LevelWarning, validatorSource, map[string]any{
				"tool":  call.Name,
				"value": value,
				"error": err.Error(),
			})
			unjudged = append(unjudged, value)
			continue
		}

		observability.Emit(ctx, v.observer, EventChecked, observability.LevelVerbose, validatorSource, map[string]any{
			"tool":      call.Name,
			"value":     value,
			"ambiguous": isAmbiguous,
		})

		if isAmbiguous {
			ambiguous = append(ambiguous, value)
			blockedIDs[call.ID] = true
		}
	}

	if len(ambiguous) == 0 {
		return Decision{Unjudged: unjudged}
	}

	d := Decision{
		Blocked:   true,
		Prompt:    clarificationPrompt(ambiguous),
		Pending:   protocol.CloneToolCalls(calls),
		Ambiguous: ambiguous,
		Unjudged:  unjudged,
	}
	for _, call := range calls {
		content := "not executed: waiting for the user to clarify another request"
		if blockedIDs[call.ID] {
			value, _ := call.StringArg(v.cfg.Argument)
			content = fmt.Sprintf("clarification requested: %q is ambiguous", value)
		}
		d.Placeholders = append(d.Placeholders, protocol.NewToolResult(call.ID, content))
	}

	observability.Emit(ctx, v.observer, EventBlocked, observability.LevelInfo, validatorSource, map[string]any{
		"ambiguous": strings.Join(ambiguous, ", "),
		"pending":   len(calls),
	})
	return d
}

// checkedValue returns the policy argument when the call is subject to the
// check: the configured tool with a single-word string value.
func (v *Validator) checkedValue(call protocol.ToolCall) (string, bool) {
	if call.Name != v.cfg.Tool {
		return "", false
	}
	value, ok := call.StringArg(v.cfg.Argument)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, ", \t") {
		return "", false
	}
	return value, true
}

func clarificationPrompt(values []string) string {
	if len(values) == 1 {
		return fmt.Sprintf(
			"The location %q could refer to more than one place. Which one did you mean? "+
				"Please reply with the city and its state or country (for example \"%s, Country\").",
			values[0], values[0])
	}

	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf(
		"The locations %s could each refer to more than one place. Which ones did you mean? "+
			"Please reply with each city and its state or country.",
		strings.Join(quoted, " and "))
}
