package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/embedding"
	"github.com/felixgeelhaar/recall/internal/provider"
	"github.com/felixgeelhaar/recall/internal/store"
)

const testDimension = 32

func newTestService(t *testing.T, providers provider.Set) (*Service, *store.SQLiteStore, *embedding.MockEmbedder) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), testDimension)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mock := embedding.NewMockEmbedder(testDimension)
	return NewService(s, mock, providers, nil, 0), s, mock
}

// failStore errors on every operation; used to prove an operation was
// rejected before any store access.
type failStore struct{}

func (failStore) Insert(ctx context.Context, rec chat.ConversationRecord) (string, error) {
	return "", errors.New("store accessed")
}
func (failStore) Get(ctx context.Context, id string) (chat.ConversationRecord, error) {
	return chat.ConversationRecord{}, errors.New("store accessed")
}
func (failStore) Search(ctx context.Context, vector []float32, k int, filter *chat.Filter) ([]chat.SearchResult, error) {
	return nil, errors.New("store accessed")
}
func (failStore) Stats(ctx context.Context, filter *chat.Filter) (chat.StatsSummary, error) {
	return chat.StatsSummary{}, errors.New("store accessed")
}
func (failStore) SetConfig(key, value string) error    { return errors.New("store accessed") }
func (failStore) GetConfig(key string) (string, error) { return "", errors.New("store accessed") }
func (failStore) Close() error                         { return nil }

type slowEmbedder struct{ dim int }

func (e slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return make([]float32, e.dim), nil
	}
}
func (e slowEmbedder) Dimension() int { return e.dim }
func (e slowEmbedder) Model() string  { return "slow" }

func TestSearchChatHistoryRejectsBadK(t *testing.T) {
	mock := embedding.NewMockEmbedder(testDimension)
	svc := NewService(failStore{}, mock, provider.Set{}, nil, 0)

	for _, k := range []int{0, -1, -100} {
		_, err := svc.SearchChatHistory(context.Background(), "query", k, nil)
		if !errors.Is(err, chat.ErrInvalidArgument) {
			t.Errorf("k=%d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
	if mock.LastText != "" {
		t.Error("Embedder must not be called for invalid k")
	}
}

func TestSearchChatHistoryRejectsEmptyQuery(t *testing.T) {
	svc := NewService(failStore{}, embedding.NewMockEmbedder(testDimension), provider.Set{}, nil, 0)

	for _, q := range []string{"", "   ", "\n"} {
		_, err := svc.SearchChatHistory(context.Background(), q, 5, nil)
		if !errors.Is(err, chat.ErrInvalidArgument) {
			t.Errorf("query %q: expected ErrInvalidArgument, got %v", q, err)
		}
	}
}

func TestSearchChatHistoryEmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t, provider.Set{})

	results, err := svc.SearchChatHistory(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search on empty store failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestAskLLMRecordsExchange(t *testing.T) {
	stub := provider.NewStubProvider("Go is a statically typed language.")
	svc, st, _ := newTestService(t, provider.Set{OpenAI: stub})
	ctx := context.Background()

	resp, err := svc.AskLLM(ctx, chat.ProviderOpenAI, "what is Go?")
	if err != nil {
		t.Fatalf("AskLLM failed: %v", err)
	}
	if resp != "Go is a statically typed language." {
		t.Errorf("Unexpected response: %q", resp)
	}

	stats, err := svc.GetChatStats(ctx, nil)
	if err != nil {
		t.Fatalf("GetChatStats failed: %v", err)
	}
	if stats.TotalCount != 1 || stats.PerProvider[chat.ProviderOpenAI] != 1 {
		t.Errorf("Expected one recorded openai exchange, got %+v", stats)
	}

	// The stored record carries model and token usage metadata and is
	// retrievable by its id.
	results, err := svc.SearchChatHistory(ctx, "what is Go?", 1, nil)
	if err != nil {
		t.Fatalf("SearchChatHistory failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	rec, err := st.Get(ctx, results[0].ID)
	if err != nil {
		t.Fatalf("Get by id failed: %v", err)
	}
	if rec.Metadata["model"] != "stub-model" || rec.Metadata["total_tokens"] != "30" {
		t.Errorf("Unexpected metadata: %v", rec.Metadata)
	}
	if len(rec.Embedding) != testDimension {
		t.Errorf("Expected %d-dimensional embedding, got %d", testDimension, len(rec.Embedding))
	}
}

func TestAskLLMProviderFailureStoresNothing(t *testing.T) {
	stub := provider.NewStubProvider("")
	stub.Err = errors.New("rate limited")
	svc, _, _ := newTestService(t, provider.Set{OpenAI: stub})
	ctx := context.Background()

	if _, err := svc.AskLLM(ctx, chat.ProviderOpenAI, "question"); err == nil {
		t.Fatal("Expected provider failure to surface")
	}

	stats, _ := svc.GetChatStats(ctx, nil)
	if stats.TotalCount != 0 {
		t.Errorf("No record may be stored after a failed ask, got %d", stats.TotalCount)
	}
}

func TestAskLLMValidation(t *testing.T) {
	svc := NewService(failStore{}, embedding.NewMockEmbedder(testDimension), provider.Set{}, nil, 0)
	ctx := context.Background()

	if _, err := svc.AskLLM(ctx, chat.ProviderOpenAI, ""); !errors.Is(err, chat.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty prompt, got %v", err)
	}
	if _, err := svc.AskLLM(ctx, chat.ProviderKind("azure"), "q"); !errors.Is(err, chat.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for unknown provider, got %v", err)
	}
	if _, err := svc.AskLLM(ctx, chat.ProviderGoogle, "q"); err == nil {
		t.Error("Expected error for unconfigured provider")
	}
}

func TestSearchRanking(t *testing.T) {
	stub := provider.NewStubProvider("Supervised and unsupervised methods.")
	svc, _, _ := newTestService(t, provider.Set{
		OpenAI:    stub,
		Anthropic: provider.NewStubProvider("Qubits and superposition."),
	})
	ctx := context.Background()

	if _, err := svc.AskLLM(ctx, chat.ProviderOpenAI, "machine learning basics"); err != nil {
		t.Fatalf("AskLLM failed: %v", err)
	}
	if _, err := svc.AskLLM(ctx, chat.ProviderAnthropic, "quantum computing intro"); err != nil {
		t.Fatalf("AskLLM failed: %v", err)
	}

	results, err := svc.SearchChatHistory(ctx, "machine learning", 2, nil)
	if err != nil {
		t.Fatalf("SearchChatHistory failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Record.Prompt != "machine learning basics" {
		t.Errorf("Expected the machine learning record first, got %q", results[0].Record.Prompt)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("Expected a strictly higher score for the matching record: %f vs %f",
			results[0].Score, results[1].Score)
	}

	t.Run("OwnTextFirst", func(t *testing.T) {
		// Querying with a record's exact canonical text returns that
		// record with a near-maximum score.
		results, err := svc.SearchChatHistory(ctx, "machine learning basics\nSupervised and unsupervised methods.", 1, nil)
		if err != nil {
			t.Fatalf("SearchChatHistory failed: %v", err)
		}
		if len(results) != 1 || results[0].Record.Prompt != "machine learning basics" {
			t.Fatalf("Expected the matching record, got %+v", results)
		}
		if results[0].Score < 0.999 {
			t.Errorf("Expected near-maximum score, got %f", results[0].Score)
		}
	})
}

func TestTimeoutSurfaces(t *testing.T) {
	svc := NewService(failStore{}, slowEmbedder{dim: testDimension}, provider.Set{}, nil, 20*time.Millisecond)

	_, err := svc.SearchChatHistory(context.Background(), "query", 5, nil)
	if !errors.Is(err, chat.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}
