package mapper

import (
	"ai-act-intake-be/internal/model"
	"ai-act-intake-be/pkg/rag/index"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(e *model.DocumentChunk) index.Chunk {
	if e == nil {
		return index.Chunk{}
	}
	return index.Chunk{
		ID:     e.ChunkKey,
		Source: e.Source,
		Index:  e.ChunkIndex,
		Text:   e.Document,
		Vector: e.EmbeddingValue.Slice(),
	}
}

func (m *DocumentChunkMapper) ToModel(c index.Chunk) *model.DocumentChunk {
	return &model.DocumentChunk{
		ChunkKey:       c.ID,
		Source:         c.Source,
		ChunkIndex:     c.Index,
		Document:       c.Text,
		EmbeddingValue: pgvector.NewVector(c.Vector),
		Metadata: datatypes.JSONMap{
			"source":     c.Source,
			"dimensions": len(c.Vector),
		},
	}
}

func (m *DocumentChunkMapper) ToModels(chunks []index.Chunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
