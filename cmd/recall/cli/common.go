package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/recall/internal/chat"
	"github.com/felixgeelhaar/recall/internal/config"
	"github.com/felixgeelhaar/recall/internal/credential"
	"github.com/felixgeelhaar/recall/internal/embedding"
	"github.com/felixgeelhaar/recall/internal/history"
	"github.com/felixgeelhaar/recall/internal/observe"
	"github.com/felixgeelhaar/recall/internal/provider"
	"github.com/felixgeelhaar/recall/internal/store"
	"github.com/felixgeelhaar/recall/internal/tools"
)

// App bundles everything a command needs.
type App struct {
	Config     config.Config
	Observer   *observe.Observer
	Store      *store.SQLiteStore
	Service    *history.Service
	Dispatcher *tools.Dispatcher
}

func recallDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall")
}

func mustApp() *App {
	app, err := newApp()
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return app
}

func newApp() (*App, error) {
	var obs *observe.Observer
	if jsonLogs {
		obs = observe.NewJSON(os.Stderr, verbose)
	} else {
		obs = observe.New(os.Stderr, verbose)
	}

	cfg, err := config.Load(filepath.Join(recallDir(), "config.yaml"))
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path, cfg.Embedding.Dimension)
	if err != nil {
		return nil, err
	}

	creds, err := credential.NewManager()
	if err != nil {
		st.Close()
		return nil, err
	}

	openaiKey := apiKey(st, creds, "openai.api_key", "OPENAI_API_KEY")

	var embedder embedding.Embedder
	if openaiKey != "" {
		embedder, err = embedding.NewOpenAIEmbedder(openaiKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimension)
		if err != nil {
			st.Close()
			return nil, err
		}
	} else {
		embedder = unconfiguredEmbedder{dimension: cfg.Embedding.Dimension}
	}

	ctx := context.Background()
	var set provider.Set
	if openaiKey != "" {
		set.OpenAI, err = provider.New(ctx, chat.ProviderOpenAI, provider.Config{
			APIKey: openaiKey, BaseURL: cfg.Providers.OpenAI.BaseURL, Model: cfg.Providers.OpenAI.Model,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
	}
	if key := apiKey(st, creds, "anthropic.api_key", "ANTHROPIC_API_KEY"); key != "" {
		set.Anthropic, err = provider.New(ctx, chat.ProviderAnthropic, provider.Config{
			APIKey: key, Model: cfg.Providers.Anthropic.Model,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
	}
	if key := apiKey(st, creds, "google.api_key", "GOOGLE_API_KEY"); key != "" {
		set.Google, err = provider.New(ctx, chat.ProviderGoogle, provider.Config{
			APIKey: key, Model: cfg.Providers.Google.Model,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	svc := history.NewService(st, embedder, set, obs, cfg.Timeout())

	return &App{
		Config:     cfg,
		Observer:   obs,
		Store:      st,
		Service:    svc,
		Dispatcher: tools.NewDispatcher(svc),
	}, nil
}

func (a *App) Close() {
	a.Store.Close()
	a.Observer.Close()
}

func (a *App) Fatal(err error, msg string) {
	a.Observer.Log().Error().Err(err).Msg(msg)
	a.Close()
	os.Exit(1)
}

// apiKey resolves a provider key from the store's configuration table
// (decrypting if needed), falling back to the environment.
func apiKey(st *store.SQLiteStore, creds *credential.Manager, storeKey, envVar string) string {
	stored, err := st.GetConfig(storeKey)
	if err == nil && stored != "" {
		if plain, err := creds.Decrypt(stored); err == nil {
			return plain
		}
	}
	return os.Getenv(envVar)
}

// unconfiguredEmbedder stands in when no embedding API key is available,
// so commands that never embed (stats, config) still work.
type unconfiguredEmbedder struct {
	dimension int
}

func (e unconfiguredEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("%w: no embedding API key configured (set openai.api_key or OPENAI_API_KEY)",
		chat.ErrEmbeddingFailure)
}

func (e unconfiguredEmbedder) Dimension() int { return e.dimension }
func (e unconfiguredEmbedder) Model() string  { return "unconfigured" }
