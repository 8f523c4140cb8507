package index

import (
	"context"
	"fmt"

	"ai-act-intake-be/pkg/embedding"
	"ai-act-intake-be/pkg/utils"
)

// Builder turns the document corpus into embedded chunks.
type Builder struct {
	loader    *Loader
	embedder  embedding.EmbeddingProvider
	chunkSize int
	overlap   int
}

func NewBuilder(loader *Loader, embedder embedding.EmbeddingProvider, chunkSize, overlap int) *Builder {
	return &Builder{
		loader:    loader,
		embedder:  embedder,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

func (b *Builder) Build(ctx context.Context) ([]Chunk, error) {
	docs, err := b.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, doc := range docs {
		for i, text := range utils.SplitText(doc.Text, b.chunkSize, b.overlap) {
			vec, err := b.embedder.Generate(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed %s#%d: %w", doc.Source, i, err)
			}
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s#%d", doc.Source, i),
				Source: doc.Source,
				Index:  i,
				Text:   text,
				Vector: vec,
			})
		}
	}
	return chunks, nil
}
