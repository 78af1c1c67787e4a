package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/core/protocol"
)

// OpenAI speaks the chat-completions API. With a base URL it also serves
// compatible local servers, which usually need no API key.
type OpenAI struct {
	*BaseProvider
	client    openai.Client
	maxTokens int
}

func NewOpenAI(cfg *config.AgentConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	if apiKey == "" {
		apiKey = "unused"
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		BaseProvider: NewBaseProvider(config.ProviderOpenAI, cfg.Model, cfg.BaseURL),
		client:       openai.NewClient(options...),
		maxTokens:    cfg.MaxTokens,
	}, nil
}

func (p *OpenAI) Complete(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(tools),
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("chat completion failed: %w", err)
	}
	return fromOpenAIResponse(resp)
}

func fromOpenAIResponse(resp *openai.ChatCompletion) (protocol.Message, error) {
	if len(resp.Choices) == 0 {
		return protocol.Message{}, ErrEmptyResponse
	}
	choice := resp.Choices[0].Message

	msg := protocol.NewMessage(protocol.RoleAssistant, choice.Content)
	for _, tc := range choice.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return protocol.Message{}, fmt.Errorf("decode arguments for %s: %w", tc.Function.Name, err)
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, protocol.NewToolCall(tc.ID, tc.Function.Name, args))
	}
	msg.ToolCalls = NormalizeToolCalls(msg.ToolCalls)

	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		return protocol.Message{}, ErrEmptyResponse
	}
	return msg, nil
}

func toOpenAIMessages(messages []protocol.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case protocol.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case protocol.RoleAssistant:
			assistant := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Content,
			}
			for _, tc := range msg.ToolCalls {
				args, err := tc.ArgumentsJSON()
				if err != nil {
					args = json.RawMessage(`{}`)
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, assistant.ToParam())
		case protocol.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func toOpenAITools(tools []protocol.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params := openai.FunctionParameters(t.Parameters)
		if params == nil {
			params = openai.FunctionParameters{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  params,
		}))
	}
	return out
}
