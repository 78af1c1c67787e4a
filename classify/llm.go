package classify

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/session"
)

const llmSource = "classify.LLMClassifier"

const classificationPrompt = `You classify the intent of a chat message.

Answer with exactly one word:
greeting - the user says hello or opens the conversation
farewell - the user says goodbye or ends the conversation
question - anything else, including requests and small talk with content

Respond with only the label.`

// LLMClassifier asks a model for the intent label.
type LLMClassifier struct {
	agent    ChatAgent
	fallback *KeywordClassifier
	observer observability.Observer
}

func NewLLMClassifier(agent ChatAgent, observer observability.Observer) *LLMClassifier {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &LLMClassifier{
		agent:    agent,
		fallback: NewKeywordClassifier(),
		observer: observer,
	}
}

// Classify returns the model's label. A failed call or an unrecognized
// label degrades to the keyword rules instead of failing. Only
// cancellation of ctx itself is returned as an error.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Result, error) {
	ctx, span := otel.Tracer("assistant/classify").Start(ctx, "classify.LLMClassifier.Classify")
	defer span.End()

	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return c.finish(ctx, Result{Intent: session.IntentQuestion, Source: SourceKeyword, Reason: "empty message"}, start), nil
	}

	reply, err := c.agent.Chat(ctx, []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, classificationPrompt),
		protocol.NewMessage(protocol.RoleUser, text),
	})
	if err != nil {
		if ctx.Err() != nil {
			span.RecordError(err)
			return Result{}, ctx.Err()
		}
		return c.degrade(ctx, text, "model call failed: "+err.Error(), start), nil
	}

	intent, ok := parseLabel(reply.Content)
	if !ok {
		return c.degrade(ctx, text, "unrecognized label: "+truncate(reply.Content, 40), start), nil
	}

	span.SetAttributes(attribute.String("intent", string(intent)))
	return c.finish(ctx, Result{Intent: intent, Source: SourceLLM}, start), nil
}

func (c *LLMClassifier) degrade(ctx context.Context, text, reason string, start time.Time) Result {
	res := Result{
		Intent:   c.fallback.Intent(text),
		Source:   SourceKeyword,
		Degraded: true,
		Reason:   reason,
	}
	observability.Emit(ctx, c.observer, EventClassifyDegraded, observability.LevelWarning, llmSource, map[string]any{
		"reason": reason,
		"intent": string(res.Intent),
	})
	return c.finish(ctx, res, start)
}

func (c *LLMClassifier) finish(ctx context.Context, res Result, start time.Time) Result {
	observability.Emit(ctx, c.observer, EventClassifyComplete, observability.LevelVerbose, llmSource, map[string]any{
		"intent":   string(res.Intent),
		"source":   res.Source,
		"degraded": res.Degraded,
		"duration": time.Since(start),
	})
	return res
}

// parseLabel accepts the first word of the reply, ignoring case and
// surrounding punctuation.
func parseLabel(reply string) (session.Intent, bool) {
	fields := strings.Fields(strings.ToLower(reply))
	if len(fields) == 0 {
		return session.IntentUnknown, false
	}
	label := strings.Trim(fields[0], ".,:;!\"'`*")
	return session.ParseIntent(label)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
