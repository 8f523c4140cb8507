package implementation

import (
	"context"
	"fmt"

	"ai-act-intake-be/internal/mapper"
	"ai-act-intake-be/internal/model"
	"ai-act-intake-be/internal/repository/contract"
	"ai-act-intake-be/pkg/rag/index"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{db: db, mapper: mapper.NewDocumentChunkMapper()}
}

func (r *DocumentChunkRepositoryImpl) Name() string { return "pgvector" }

// Load only checks that the table holds a usable corpus; rows stay in Postgres.
func (r *DocumentChunkRepositoryImpl) Load(ctx context.Context) error {
	if !r.db.WithContext(ctx).Migrator().HasTable(&model.DocumentChunk{}) {
		return index.ErrIndexNotFound
	}
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return index.ErrIndexNotFound
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) Replace(ctx context.Context, chunks []index.Chunk) error {
	models := r.mapper.ToModels(chunks)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&model.DocumentChunk{}); err != nil {
			return fmt.Errorf("migrate document_chunks: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(models, insertBatchSize).Error
	})
}

func (r *DocumentChunkRepositoryImpl) Search(ctx context.Context, vector []float32, k int) ([]index.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]index.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = index.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.DocumentChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Count(&count).Error
	return int(count), err
}
