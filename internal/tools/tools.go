// Package tools exposes the history core to a tool-dispatch front end:
// three named tools with JSON-schema inputs, dispatched by name. The
// transport speaking to clients is the caller's concern.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/history"
)

const (
	ToolSearchChatHistory = "search_chat_history"
	ToolAskLLM            = "ask_llm"
	ToolGetChatStats      = "get_chat_stats"

	defaultSearchLimit = 5
	responsePreviewLen = 200
)

// Definition describes one tool to the front end.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Dispatcher routes tool calls to the history service.
type Dispatcher struct {
	svc *history.Service
}

func NewDispatcher(svc *history.Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Definitions returns the three tools the front end may call.
func (d *Dispatcher) Definitions() []Definition {
	return []Definition{
		{
			Name:        ToolSearchChatHistory,
			Description: "Search through past chat conversations using semantic similarity",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query to find similar past conversations",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum number of results to return (default: 5)",
						"default":     defaultSearchLimit,
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolAskLLM,
			Description: "Ask a question to an LLM provider and store the response",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{
						"type":        "string",
						"description": "The question to ask the LLM",
					},
					"provider": map[string]any{
						"type":        "string",
						"description": "LLM provider to use",
						"enum":        []string{"openai", "anthropic", "google"},
						"default":     "openai",
					},
				},
				"required": []string{"question"},
			},
		},
		{
			Name:        ToolGetChatStats,
			Description: "Get statistics about stored chat history",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"provider": map[string]any{
						"type":        "string",
						"description": "Restrict stats to one provider",
						"enum":        []string{"openai", "anthropic", "google"},
					},
					"since": map[string]any{
						"type":        "string",
						"description": "RFC 3339 lower bound on record time",
					},
					"until": map[string]any{
						"type":        "string",
						"description": "RFC 3339 upper bound on record time",
					},
				},
			},
		},
	}
}

// Handle dispatches one tool call by name and renders its result as text.
func (d *Dispatcher) Handle(ctx context.Context, name string, args json.RawMessage) (string, error) {
	switch name {
	case ToolSearchChatHistory:
		return d.searchChatHistory(ctx, args)
	case ToolAskLLM:
		return d.askLLM(ctx, args)
	case ToolGetChatStats:
		return d.getChatStats(ctx, args)
	default:
		return "", fmt.Errorf("%w: unknown tool %q", chat.ErrInvalidArgument, name)
	}
}

func (d *Dispatcher) searchChatHistory(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return "", err
	}
	if params.Limit == 0 {
		params.Limit = defaultSearchLimit
	}

	results, err := d.svc.SearchChatHistory(ctx, params.Query, params.Limit, nil)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No similar conversations found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d similar conversations:\n\n", len(results))
	for i, res := range results {
		rec := res.Record
		fmt.Fprintf(&b, "%d. **[%s]** %s (score %.3f)\n",
			i+1, strings.ToUpper(string(rec.Provider)), rec.CreatedAt.Format(time.RFC3339), res.Score)
		fmt.Fprintf(&b, "   **Q:** %s\n", rec.Prompt)
		fmt.Fprintf(&b, "   **A:** %s\n\n", preview(rec.Response))
	}
	return b.String(), nil
}

func (d *Dispatcher) askLLM(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Question string `json:"question"`
		Provider string `json:"provider"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return "", err
	}
	if params.Provider == "" {
		params.Provider = string(chat.ProviderOpenAI)
	}

	kind, err := chat.ParseProvider(params.Provider)
	if err != nil {
		return "", err
	}

	response, err := d.svc.AskLLM(ctx, kind, params.Question)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("**Question:** %s\n\n**Response from %s:**\n%s",
		params.Question, strings.ToUpper(params.Provider), response), nil
}

func (d *Dispatcher) getChatStats(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Provider string `json:"provider"`
		Since    string `json:"since"`
		Until    string `json:"until"`
	}
	if err := unmarshalArgs(args, &params); err != nil {
		return "", err
	}

	filter, err := buildFilter(params.Provider, params.Since, params.Until)
	if err != nil {
		return "", err
	}

	stats, err := d.svc.GetChatStats(ctx, filter)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("**Chat History Statistics:**\n\n")
	fmt.Fprintf(&b, "Total conversations: %d\n\n", stats.TotalCount)
	b.WriteString("**By Provider:**\n")
	for _, kind := range []chat.ProviderKind{chat.ProviderOpenAI, chat.ProviderAnthropic, chat.ProviderGoogle} {
		if count, ok := stats.PerProvider[kind]; ok {
			fmt.Fprintf(&b, "- %s: %d\n", strings.ToUpper(string(kind)), count)
		}
	}
	if stats.TotalCount > 0 {
		fmt.Fprintf(&b, "\nSpan: %s .. %s\n",
			stats.Earliest.Format(time.RFC3339), stats.Latest.Format(time.RFC3339))
	}
	return b.String(), nil
}

func buildFilter(providerTag, since, until string) (*chat.Filter, error) {
	if providerTag == "" && since == "" && until == "" {
		return nil, nil
	}

	var filter chat.Filter
	if providerTag != "" {
		kind, err := chat.ParseProvider(providerTag)
		if err != nil {
			return nil, err
		}
		filter.Providers = []chat.ProviderKind{kind}
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid since %q: %v", chat.ErrInvalidArgument, since, err)
		}
		filter.Since = t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid until %q: %v", chat.ErrInvalidArgument, until, err)
		}
		filter.Until = t
	}
	return &filter, nil
}

func unmarshalArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", chat.ErrInvalidArgument, err)
	}
	return nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= responsePreviewLen {
		return s
	}
	return string(runes[:responsePreviewLen]) + "..."
}
