package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/embedding"
	"github.com/felixgeelhaar/recall/internal/observe"
	"github.com/felixgeelhaar/recall/internal/provider"
	"github.com/felixgeelhaar/recall/internal/store"
)

// DefaultTimeout bounds every call to an external collaborator (embedder,
// provider, store) when the caller's context carries no deadline.
const DefaultTimeout = 60 * time.Second

// Service ties the builder, the embedder, the provider set, and the index
// store together. It holds no state of its own and never caches records;
// the store is the single shared resource.
type Service struct {
	store     store.Storage
	embedder  embedding.Embedder
	builder   *Builder
	providers provider.Set
	obs       *observe.Observer
	timeout   time.Duration
}

func NewService(s store.Storage, e embedding.Embedder, providers provider.Set, obs *observe.Observer, timeout time.Duration) *Service {
	if obs == nil {
		obs = observe.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:     s,
		embedder:  e,
		builder:   NewBuilder(e),
		providers: providers,
		obs:       obs,
		timeout:   timeout,
	}
}

// SearchChatHistory embeds the query text and returns the top k stored
// exchanges by cosine similarity. An empty store yields an empty slice,
// not an error; a failure is returned as such so callers can tell "no
// matches" from "search could not run".
func (s *Service) SearchChatHistory(ctx context.Context, query string, k int, filter *chat.Filter) ([]chat.SearchResult, error) {
	ctx, span := s.obs.StartSpan(ctx, "search_chat_history")
	defer span.End()

	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", chat.ErrInvalidArgument, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", chat.ErrInvalidArgument)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, s.classify(ctx, fmt.Errorf("embed query: %w", err))
	}
	if isZeroVector(vec) {
		return nil, fmt.Errorf("%w: query embeds to a zero vector", chat.ErrInvalidArgument)
	}

	results, err := s.store.Search(ctx, vec, k, filter)
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	s.obs.Log().Debug().Str("query", query).Int("k", k).Int("hits", len(results)).Msg("history searched")
	return results, nil
}

// AskLLM sends the prompt to the chosen provider, then records the
// exchange in the index store before returning the response. Any failure
// along the way surfaces unchanged and leaves no partial record behind.
func (s *Service) AskLLM(ctx context.Context, kind chat.ProviderKind, prompt string) (string, error) {
	ctx, span := s.obs.StartSpan(ctx, "ask_llm")
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", chat.ErrInvalidArgument)
	}

	p, err := s.providers.For(kind)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	resp, err := p.Chat(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", s.classify(ctx, fmt.Errorf("%s chat: %w", kind, err))
	}

	metadata := map[string]string{"model": resp.Model}
	if resp.Usage.TotalTokens > 0 {
		metadata["prompt_tokens"] = strconv.Itoa(resp.Usage.PromptTokens)
		metadata["completion_tokens"] = strconv.Itoa(resp.Usage.CompletionTokens)
		metadata["total_tokens"] = strconv.Itoa(resp.Usage.TotalTokens)
	}

	rec, err := s.builder.Build(ctx, kind, prompt, resp.Content, metadata)
	if err != nil {
		return "", s.classify(ctx, err)
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return "", s.classify(ctx, err)
	}

	s.obs.Log().Info().Str("id", id).Str("provider", string(kind)).Str("model", resp.Model).Msg("exchange recorded")
	return resp.Content, nil
}

// GetChatStats is pure read-side aggregation; store failures surface
// unchanged since there is nothing to recover here.
func (s *Service) GetChatStats(ctx context.Context, filter *chat.Filter) (chat.StatsSummary, error) {
	ctx, span := s.obs.StartSpan(ctx, "get_chat_stats")
	defer span.End()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	summary, err := s.store.Stats(ctx, filter)
	if err != nil {
		return chat.StatsSummary{}, s.classify(ctx, err)
	}
	return summary, nil
}

// bound applies the service timeout unless the caller already set a deadline.
func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps an exceeded deadline to the Timeout kind; every other
// failure keeps the kind it already carries.
func (s *Service) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, chat.ErrTimeout) {
		return fmt.Errorf("%w: %v", chat.ErrTimeout, err)
	}
	return err
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
