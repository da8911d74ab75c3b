package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aiox-platform/agentbrain/internal/config"
	"github.com/aiox-platform/agentbrain/internal/database"
	"github.com/aiox-platform/agentbrain/internal/embedding"
	"github.com/aiox-platform/agentbrain/internal/knowledge"
	"github.com/aiox-platform/agentbrain/internal/llm"
	"github.com/aiox-platform/agentbrain/internal/memory"
)

// vectorStores are the semantic memory and knowledge repositories of one backend.
type vectorStores struct {
	pool      *pgxpool.Pool
	memory    memory.VectorRepository
	knowledge knowledge.Repository
}

func (s *vectorStores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openVectorStores connects to Postgres and migrates it, or builds the
// in-process chromem stores when VECTOR_BACKEND=memory.
func openVectorStores(ctx context.Context, cfg *config.Config) (*vectorStores, error) {
	if cfg.Agents.VectorBackend == "memory" {
		kr, err := knowledge.NewChromemRepository()
		if err != nil {
			return nil, err
		}
		return &vectorStores{memory: memory.NewChromemRepository(), knowledge: kr}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		pool.Close()
		return nil, err
	}
	return &vectorStores{
		pool:      pool,
		memory:    memory.NewPostgresRepository(pool),
		knowledge: knowledge.NewPostgresRepository(pool),
	}, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config, f *config.AgentFile) (*embedding.Client, error) {
	provider, err := embedding.NewProvider(ctx, f.Embeddings.Provider, cfg.Providers)
	if err != nil {
		return nil, err
	}
	prices := embedding.DefaultPrices().With(f.Pricing.Embeddings)
	return embedding.NewClient(provider, f.Embeddings.Model, f.Embeddings.Dimensions, prices), nil
}

// newInvoker routes models to every provider that has a key.
func newInvoker(ctx context.Context, keys config.ProvidersConfig) (*llm.Router, error) {
	var fallback, anthropic, gemini llm.Invoker
	if keys.OpenAIKey != "" {
		fallback = llm.NewOpenAI(keys.OpenAIKey)
	}
	if keys.AnthropicKey != "" {
		anthropic = llm.NewAnthropic(keys.AnthropicKey)
	}
	if keys.GeminiKey != "" {
		g, err := llm.NewGemini(ctx, keys.GeminiKey)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		gemini = g
	}
	return llm.NewRouter(fallback, anthropic, gemini), nil
}

func chatPrices(f *config.AgentFile) llm.PriceTable {
	overrides := make(map[string]llm.ChatPrice, len(f.Pricing.Chat))
	for model, p := range f.Pricing.Chat {
		overrides[model] = llm.ChatPrice{Input: p.Input, Output: p.Output}
	}
	return llm.DefaultPrices().With(overrides)
}
