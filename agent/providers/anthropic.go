package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/core/protocol"
)

const (
	defaultAnthropicMaxTokens = 1024

	// emptyTurnText stands in for blank user text, which the Messages API
	// rejects.
	emptyTurnText = "(empty message)"
)

// Anthropic speaks the Messages API.
type Anthropic struct {
	*BaseProvider
	client    anthropic.Client
	maxTokens int64
}

func NewAnthropic(cfg *config.AgentConfig) (*Anthropic, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &Anthropic{
		BaseProvider: NewBaseProvider(config.ProviderAnthropic, cfg.Model, cfg.BaseURL),
		client:       anthropic.NewClient(options...),
		maxTokens:    maxTokens,
	}, nil
}

func (p *Anthropic) Complete(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	converted, system := toAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  converted,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, t := range toAnthropicTools(tools) {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &t})
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("messages request failed: %w", err)
	}
	return fromAnthropicResponse(resp)
}

func fromAnthropicResponse(resp *anthropic.Message) (protocol.Message, error) {
	var (
		text  strings.Builder
		calls []protocol.ToolCall
	)
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return protocol.Message{}, fmt.Errorf("decode input for %s: %w", b.Name, err)
				}
			}
			calls = append(calls, protocol.NewToolCall(b.ID, b.Name, args))
		}
	}

	msg := protocol.NewMessage(protocol.RoleAssistant, text.String())
	msg.ToolCalls = NormalizeToolCalls(calls)
	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		return protocol.Message{}, ErrEmptyResponse
	}
	return msg, nil
}

// toAnthropicMessages converts the log and lifts system messages into the
// system prompt. Consecutive tool results share one user message.
func toAnthropicMessages(messages []protocol.Message) ([]anthropic.MessageParam, string) {
	var (
		out    []anthropic.MessageParam
		system []string
	)

	for _, msg := range messages {
		switch msg.Role {
		case protocol.RoleSystem:
			system = append(system, msg.Content)

		case protocol.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: msg.Content},
				})
			}
			for _, tc := range msg.ToolCalls {
				args, err := tc.ArgumentsJSON()
				if err != nil {
					args = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						Type:  "tool_use",
						ID:    tc.ID,
						Name:  tc.Name,
						Input: args,
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})

		case protocol.RoleTool:
			block := anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: msg.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: msg.Content},
					}},
				},
			}
			if n := len(out); n > 0 && out[n-1].Role == anthropic.MessageParamRoleUser && isToolResultTurn(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{block},
			})

		default:
			text := msg.Content
			if strings.TrimSpace(text) == "" {
				text = emptyTurnText
			}
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	return out, strings.Join(system, "\n\n")
}

func isToolResultTurn(m anthropic.MessageParam) bool {
	for _, b := range m.Content {
		if b.OfToolResult == nil {
			return false
		}
	}
	return len(m.Content) > 0
}

func toAnthropicTools(tools []protocol.Tool) []anthropic.ToolParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolParam, 0, len(tools))
	for _, t := range tools {
		props, required := schemaProperties(t.Parameters)
		out = append(out, anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   required,
			},
		})
	}
	return out
}
