package bootstrap

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"ai-act-intake-be/internal/config"
	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/internal/repository/implementation"
	"ai-act-intake-be/pkg/database"
	"ai-act-intake-be/pkg/embedding"
	"ai-act-intake-be/pkg/intake"
	"ai-act-intake-be/pkg/llm"
	"ai-act-intake-be/pkg/llm/factory"
	"ai-act-intake-be/pkg/rag/index"
	"ai-act-intake-be/pkg/rag/query"
)

// Core is everything a session needs, independent of how users reach it.
type Core struct {
	Index  *index.Index
	Engine *query.Engine
	Flow   *intake.Flow
}

// NewCore wires providers, the vector store and the intake flow, and makes
// sure the index is usable. Any error should stop the process.
func NewCore(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger, events intake.EventSink) (*Core, error) {
	// 1. Providers
	embeddingProvider := newEmbeddingProvider(cfg)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.OpenAIAPIKey,
		llm.Options{
			Model:            cfg.Ai.LLMModel,
			MaxTokens:        cfg.Ai.MaxTokens,
			TopP:             cfg.Ai.TopP,
			FrequencyPenalty: cfg.Ai.FrequencyPenalty,
			PresencePenalty:  cfg.Ai.PresencePenalty,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2. Index
	store, err := newVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	builder := index.NewBuilder(
		index.NewLoader(cfg.Rag.DocumentsDir),
		embeddingProvider,
		cfg.Rag.ChunkSize,
		cfg.Rag.ChunkOverlap,
	)
	ix := index.New(store, builder, sysLogger)
	if err := ix.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap index from %s: %w", cfg.Rag.DocumentsDir, err)
	}

	// 3. Query engine and flow
	engine := query.NewEngine(store, embeddingProvider, llmProvider, query.Config{
		TopK:        cfg.Rag.TopK,
		Temperature: cfg.Rag.Temperature,
	}, sysLogger)

	catalog := intake.DefaultCatalog()
	if cfg.Intake.CatalogPath != "" {
		if catalog, err = intake.LoadCatalog(cfg.Intake.CatalogPath); err != nil {
			return nil, err
		}
		log.Printf("[INFO] Using questionnaire from %s", cfg.Intake.CatalogPath)
	}

	flow := intake.NewFlow(intake.Dependencies{
		LLM:           llmProvider,
		Retriever:     engine,
		Catalog:       catalog,
		Logger:        sysLogger,
		TrafficLogger: logger.NewIsolatedLogger(cfg.App.LLMLogFilePath),
		Events:        events,
	}, intake.Config{
		RevisionLimit: cfg.Intake.RevisionLimit,
		RetryAttempts: cfg.Intake.RetryAttempts,
		RetryInterval: cfg.Intake.RetryInterval,
	})

	return &Core{Index: ix, Engine: engine, Flow: flow}, nil
}

func newEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "ollama" {
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	}
	log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	return embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.LLMBaseURL, cfg.Ai.EmbeddingModel)
}

// newVectorStore picks pgvector when a database is configured.
func newVectorStore(cfg *config.Config) (index.VectorStore, error) {
	if cfg.Database.Connection == "" {
		dir := filepath.Clean(cfg.Rag.StorageDir)
		log.Printf("[INFO] Using vector store: FILE (%s)", dir)
		return index.NewFileStore(dir), nil
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Printf("[INFO] Using vector store: PGVECTOR")
	return implementation.NewDocumentChunkRepository(db), nil
}
