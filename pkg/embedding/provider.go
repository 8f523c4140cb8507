package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings.
// Returned vectors are normalized to unit length.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
