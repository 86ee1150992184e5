package provider

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/recall/internal/chat"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents the output from the model.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for LLM chat backends.
type Provider interface {
	// Chat sends a list of messages to the model and returns a response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Name returns the provider identifier (e.g. "openai").
	Name() string
}

// Config holds the settings one backend needs.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Set is the closed set of chat backends, one slot per provider tag.
// Slots left nil are unconfigured.
type Set struct {
	OpenAI    Provider
	Anthropic Provider
	Google    Provider
}

// For selects the backend for a provider tag by explicit match.
func (s Set) For(kind chat.ProviderKind) (Provider, error) {
	var p Provider
	switch kind {
	case chat.ProviderOpenAI:
		p = s.OpenAI
	case chat.ProviderAnthropic:
		p = s.Anthropic
	case chat.ProviderGoogle:
		p = s.Google
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", chat.ErrInvalidArgument, kind)
	}
	if p == nil {
		return nil, fmt.Errorf("provider %s is not configured", kind)
	}
	return p, nil
}

// New constructs the backend for a provider tag.
func New(ctx context.Context, kind chat.ProviderKind, cfg Config) (Provider, error) {
	switch kind {
	case chat.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case chat.ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case chat.ProviderGoogle:
		return NewGoogleProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", chat.ErrInvalidArgument, kind)
	}
}
