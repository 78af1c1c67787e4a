package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/assistant/core/protocol"
)

var ErrUnclearVerdict = errors.New("judge returned no verdict")

const judgePrompt = `You decide whether a place name given to a weather lookup is ambiguous.

A name is AMBIGUOUS when it could reasonably refer to two or more well-known
places in different states or countries (for example "Paris" could be
Paris, France or Paris, Texas; "Springfield" exists in many US states).
A name is CLEAR when one place is overwhelmingly the obvious meaning or the
name is unique.

Answer with exactly one word: AMBIGUOUS or CLEAR.`

// ChatAgent is the part of an agent the judge needs.
type ChatAgent interface {
	Chat(ctx context.Context, messages []protocol.Message) (protocol.Message, error)
}

// LLMJudge asks a model to rule on ambiguity.
type LLMJudge struct {
	agent ChatAgent
}

func NewLLMJudge(agent ChatAgent) *LLMJudge {
	return &LLMJudge{agent: agent}
}

func (j *LLMJudge) Ambiguous(ctx context.Context, location string) (bool, error) {
	reply, err := j.agent.Chat(ctx, []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, judgePrompt),
		protocol.NewMessage(protocol.RoleUser, fmt.Sprintf("Place name: %s", location)),
	})
	if err != nil {
		return false, fmt.Errorf("judge call failed: %w", err)
	}
	return parseVerdict(reply.Content)
}

func parseVerdict(reply string) (bool, error) {
	upper := strings.ToUpper(reply)
	hasAmbiguous := strings.Contains(upper, "AMBIGUOUS")
	hasClear := strings.Contains(upper, "CLEAR")

	switch {
	case hasAmbiguous && !hasClear:
		return true, nil
	case hasClear && !hasAmbiguous:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnclearVerdict, reply)
	}
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, location string) (bool, error)

func (f JudgeFunc) Ambiguous(ctx context.Context, location string) (bool, error) {
	return f(ctx, location)
}

// StaticJudge treats a fixed set of names as ambiguous, ignoring case.
type StaticJudge map[string]bool

func NewStaticJudge(names ...string) StaticJudge {
	j := make(StaticJudge, len(names))
	for _, n := range names {
		j[strings.ToLower(n)] = true
	}
	return j
}

func (j StaticJudge) Ambiguous(_ context.Context, location string) (bool, error) {
	return j[strings.ToLower(location)], nil
}
