package index

import (
	"context"
	"errors"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrCorruptIndex  = errors.New("index is corrupt")
	ErrNoDocuments   = errors.New("no documents to index")
	ErrRebuildBusy   = errors.New("index rebuild already running")
)

// Chunk is one embedded passage of a source document.
type Chunk struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Index  int       `json:"index"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

type ScoredChunk struct {
	Chunk      Chunk
	Similarity float64 // 1.0 = identical
}

// VectorStore persists chunks and answers nearest-neighbour queries.
// Replace swaps the whole corpus; readers never observe a partial index.
type VectorStore interface {
	Name() string
	Load(ctx context.Context) error
	Replace(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}
