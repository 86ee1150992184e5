package history

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/embedding"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, chat.ErrEmbeddingFailure
}
func (failingEmbedder) Dimension() int { return 8 }
func (failingEmbedder) Model() string  { return "failing" }

func TestBuilderBuild(t *testing.T) {
	mock := embedding.NewMockEmbedder(8)
	b := NewBuilder(mock)

	rec, err := b.Build(context.Background(), chat.ProviderOpenAI, "what is Go?", "a language", map[string]string{"model": "gpt-4o"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(rec.Embedding) != 8 {
		t.Errorf("Expected 8-dimensional embedding, got %d", len(rec.Embedding))
	}
	if rec.Prompt != "what is Go?" || rec.Response != "a language" {
		t.Errorf("Text not stored verbatim: %+v", rec)
	}
	if rec.Metadata["model"] != "gpt-4o" {
		t.Errorf("Metadata lost: %v", rec.Metadata)
	}
	if rec.ID != "" || !rec.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt belong to the store, not the builder")
	}

	// The canonical embedded text is prompt + "\n" + response.
	if mock.LastText != "what is Go?\na language" {
		t.Errorf("Unexpected canonical text: %q", mock.LastText)
	}
}

func TestBuilderValidation(t *testing.T) {
	b := NewBuilder(embedding.NewMockEmbedder(8))
	ctx := context.Background()

	cases := []struct {
		name     string
		provider chat.ProviderKind
		prompt   string
		response string
	}{
		{"empty prompt", chat.ProviderOpenAI, "", "resp"},
		{"blank prompt", chat.ProviderOpenAI, "   ", "resp"},
		{"empty response", chat.ProviderOpenAI, "prompt", ""},
		{"unknown provider", chat.ProviderKind("azure"), "prompt", "resp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Build(ctx, tc.provider, tc.prompt, tc.response, nil)
			if !errors.Is(err, chat.ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestBuilderEmbedderFailure(t *testing.T) {
	b := NewBuilder(failingEmbedder{})

	_, err := b.Build(context.Background(), chat.ProviderOpenAI, "prompt", "resp", nil)
	if !errors.Is(err, chat.ErrEmbeddingFailure) {
		t.Errorf("Expected ErrEmbeddingFailure, got %v", err)
	}
}
