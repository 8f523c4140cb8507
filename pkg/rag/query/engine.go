package query

import (
	"context"
	"fmt"

	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/pkg/embedding"
	"ai-act-intake-be/pkg/llm"
	"ai-act-intake-be/pkg/rag/index"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rag-query")

type Config struct {
	TopK        int
	Temperature float64
}

// Engine answers a query from the indexed corpus: embed, retrieve top-k,
// then stream a completion grounded in the retrieved passages.
type Engine struct {
	store    index.VectorStore
	embedder embedding.EmbeddingProvider
	llm      llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

func NewEngine(store index.VectorStore, embedder embedding.EmbeddingProvider, provider llm.LLMProvider, cfg Config, logger logger.ILogger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		llm:      provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// Query retrieves the passages for q and streams the answer. The query span
// stays open until the returned stream is drained.
func (e *Engine) Query(ctx context.Context, q string) (llm.Stream, error) {
	ctx, span := tracer.Start(ctx, "rag.query")

	vec, err := e.embedder.Generate(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, vec, e.cfg.TopK)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("search index: %w", err)
	}
	span.SetAttributes(attribute.Int("rag.hits", len(hits)))

	sources := make([]string, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk.ID
	}
	e.logger.Debug("RAG", "Retrieved context", map[string]interface{}{
		"backend": e.store.Name(),
		"sources": sources,
	})

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(hits, q)},
	}
	stream, err := e.llm.Stream(ctx, history, llm.WithTemperature(e.cfg.Temperature))
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	return traced(stream, span), nil
}

func traced(stream llm.Stream, span trace.Span) llm.Stream {
	return func(yield func(string, error) bool) {
		defer span.End()
		chunks := 0
		for chunk, err := range stream {
			if err != nil {
				span.RecordError(err)
			} else {
				chunks++
			}
			if !yield(chunk, err) {
				break
			}
		}
		span.SetAttributes(attribute.Int("rag.chunks", chunks))
	}
}
