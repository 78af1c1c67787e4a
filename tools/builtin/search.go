package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/tools"
)

const (
	SearchName = "web_search"

	maxRelatedTopics = 5
)

func SearchTool() protocol.Tool {
	return protocol.Tool{
		Name:        SearchName,
		Description: "Search the web for factual information about a topic.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Search queries the DuckDuckGo instant answer API.
type Search struct {
	client  *apiClient
	baseURL string
}

func NewSearch(cfg Config) *Search {
	return &Search{client: newAPIClient(cfg), baseURL: cfg.SearchURL}
}

type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	Answer        string         `json:"Answer"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	Definition    string         `json:"Definition"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

// Handle is the web_search tool handler.
func (s *Search) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return tools.Result{}, errors.New("invalid arguments: query is required")
	}

	var ia instantAnswer
	err := s.client.getJSON(ctx, s.baseURL, url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}, &ia)
	if err != nil {
		return tools.Result{}, fmt.Errorf("search %q: %w", query, err)
	}

	return tools.Result{Content: formatInstantAnswer(query, ia)}, nil
}

func formatInstantAnswer(query string, ia instantAnswer) string {
	var b strings.Builder
	if ia.Heading != "" {
		fmt.Fprintf(&b, "%s\n", ia.Heading)
	}
	if ia.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n", ia.Answer)
	}
	if ia.AbstractText != "" {
		b.WriteString(ia.AbstractText)
		if ia.AbstractURL != "" {
			fmt.Fprintf(&b, " (%s)", ia.AbstractURL)
		}
		b.WriteString("\n")
	}
	if ia.Definition != "" {
		fmt.Fprintf(&b, "Definition: %s\n", ia.Definition)
	}

	topics := flattenTopics(ia.RelatedTopics)
	if len(topics) > maxRelatedTopics {
		topics = topics[:maxRelatedTopics]
	}
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s", t.Text)
		if t.FirstURL != "" {
			fmt.Fprintf(&b, " (%s)", t.FirstURL)
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	return strings.TrimRight(b.String(), "\n")
}

// flattenTopics expands grouped topics in order.
func flattenTopics(topics []relatedTopic) []relatedTopic {
	var out []relatedTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		if t.Text != "" {
			out = append(out, t)
		}
	}
	return out
}
