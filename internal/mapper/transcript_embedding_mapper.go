package mapper

import (
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"

	"github.com/pgvector/pgvector-go"
)

type TranscriptEmbeddingMapper struct{}

func NewTranscriptEmbeddingMapper() *TranscriptEmbeddingMapper {
	return &TranscriptEmbeddingMapper{}
}

func (m *TranscriptEmbeddingMapper) ToEntity(e *model.TranscriptEmbedding) *entity.TranscriptEmbedding {
	if e == nil {
		return nil
	}

	return &entity.TranscriptEmbedding{
		Id:         e.Id,
		SessionId:  e.SessionId,
		SegmentId:  e.SegmentId,
		Document:   e.Document,
		Embedding:  e.Embedding.Slice(),
		ChunkIndex: e.ChunkIndex,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *TranscriptEmbeddingMapper) ToModel(e *entity.TranscriptEmbedding) *model.TranscriptEmbedding {
	if e == nil {
		return nil
	}

	return &model.TranscriptEmbedding{
		Id:         e.Id,
		SessionId:  e.SessionId,
		SegmentId:  e.SegmentId,
		Document:   e.Document,
		Embedding:  pgvector.NewVector(e.Embedding),
		ChunkIndex: e.ChunkIndex,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *TranscriptEmbeddingMapper) ToEntities(embeddings []*model.TranscriptEmbedding) []*entity.TranscriptEmbedding {
	entities := make([]*entity.TranscriptEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
