package contract

import "ai-act-intake-be/pkg/rag/index"

// DocumentChunkRepository is the Postgres-backed vector store for the regulation corpus.
type DocumentChunkRepository interface {
	index.VectorStore
}
