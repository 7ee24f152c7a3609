package implementation

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/mapper"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/contract"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TranscriptEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptEmbeddingMapper
}

func NewTranscriptEmbeddingRepository(db *gorm.DB) contract.TranscriptEmbeddingRepository {
	return &TranscriptEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptEmbeddingMapper(),
	}
}

func (r *TranscriptEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.TranscriptEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	models := make([]*model.TranscriptEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *TranscriptEmbeddingRepositoryImpl) DeleteBySegmentId(ctx context.Context, segmentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("segment_id = ?", segmentId).Delete(&model.TranscriptEmbedding{}).Error
}

func (r *TranscriptEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptEmbedding, error) {
	var models []*model.TranscriptEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TranscriptEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptEmbedding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TranscriptEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*contract.ScoredTranscriptEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so the score is
	// 1 - (embedding <=> query_vector). The join scopes hits to the caller's
	// own sessions.
	type result struct {
		model.TranscriptEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("transcript_embeddings").
		Select("transcript_embeddings.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Joins("JOIN recording_sessions ON recording_sessions.id = transcript_embeddings.session_id").
		Where("recording_sessions.user_id = ?", userId).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTranscriptEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTranscriptEmbedding{
			Embedding:  r.mapper.ToEntity(&res.TranscriptEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
