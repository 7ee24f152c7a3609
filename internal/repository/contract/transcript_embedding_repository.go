package contract

import (
	"context"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredTranscriptEmbedding pairs a match with its cosine similarity.
type ScoredTranscriptEmbedding struct {
	Embedding  *entity.TranscriptEmbedding
	Similarity float64
}

type TranscriptEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.TranscriptEmbedding) error

	// DeleteBySegmentId clears previous chunks before a segment is re-embedded.
	DeleteBySegmentId(ctx context.Context, segmentId uuid.UUID) error

	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar runs a cosine nearest-neighbour search scoped to sessions
	// owned by userId.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*ScoredTranscriptEmbedding, error)
}
