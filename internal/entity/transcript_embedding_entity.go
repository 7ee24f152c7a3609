package entity

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptEmbedding is one embedded chunk of a FINAL segment, produced by
// the background embedding consumer and queried by semantic search.
type TranscriptEmbedding struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId  uuid.UUID `gorm:"type:uuid;index"`
	SegmentId  uuid.UUID `gorm:"type:uuid;index"`
	Document   string
	Embedding  []float32
	ChunkIndex int
	CreatedAt  time.Time
}
