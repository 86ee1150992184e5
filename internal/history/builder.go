// Package history implements the conversation-indexing core: building
// vector-searchable records from LLM exchanges and querying them by
// semantic similarity.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/embedding"
)

// Builder assembles conversation records from raw provider output.
type Builder struct {
	embedder embedding.Embedder
}

func NewBuilder(e embedding.Embedder) *Builder {
	return &Builder{embedder: e}
}

// canonicalText is what gets embedded for a record. Prompt and response
// concatenated, matching the query side of search. This choice is fixed
// for the life of a corpus: changing it would mix embedding semantics
// across records and silently degrade ranking.
func canonicalText(prompt, response string) string {
	return prompt + "\n" + response
}

// Build validates the exchange, embeds it, and returns a record ready for
// insertion. If the embedder fails, no record is constructed: a record
// without an embedding must never reach the store.
func (b *Builder) Build(ctx context.Context, provider chat.ProviderKind, prompt, response string, metadata map[string]string) (chat.ConversationRecord, error) {
	if !provider.Valid() {
		return chat.ConversationRecord{}, fmt.Errorf("%w: unknown provider %q", chat.ErrInvalidArgument, provider)
	}
	if strings.TrimSpace(prompt) == "" {
		return chat.ConversationRecord{}, fmt.Errorf("%w: prompt must not be empty", chat.ErrInvalidArgument)
	}
	if strings.TrimSpace(response) == "" {
		return chat.ConversationRecord{}, fmt.Errorf("%w: response must not be empty", chat.ErrInvalidArgument)
	}

	vec, err := b.embedder.Embed(ctx, canonicalText(prompt, response))
	if err != nil {
		return chat.ConversationRecord{}, fmt.Errorf("embed exchange: %w", err)
	}

	return chat.ConversationRecord{
		Provider:  provider,
		Prompt:    prompt,
		Response:  response,
		Embedding: vec,
		Metadata:  metadata,
	}, nil
}
