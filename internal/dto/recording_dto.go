package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	// Activate opens the session in ACTIVE immediately instead of waiting
	// for the first audio chunk.
	Activate bool `json:"activate"`
}

type SessionResponse struct {
	Id              uuid.UUID  `json:"id"`
	TraceId         uuid.UUID  `json:"trace_id"`
	State           string     `json:"state"`
	StopReason      string     `json:"stop_reason,omitempty"`
	SegmentCount    int        `json:"segment_count"`
	AudioDurationMs int64      `json:"audio_duration_ms"`
	AvgConfidence   float64    `json:"avg_confidence"`
	StartedAt       *time.Time `json:"started_at"`
	FinalizedAt     *time.Time `json:"finalized_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

type SubmitChunkRequest struct {
	Id       uuid.UUID
	SeqNo    int   `json:"seq_no" validate:"min=0"`
	OffsetMs int64 `json:"offset_ms" validate:"min=0"`
	// DurationMs is optional; when zero it is derived from the PCM length.
	DurationMs int64 `json:"duration_ms"`
	// Audio is base64-encoded PCM16LE mono at 16kHz.
	Audio string `json:"audio" validate:"required"`
}

type ChunkAck struct {
	SessionId uuid.UUID `json:"session_id"`
	SeqNo     int       `json:"seq_no"`
	// Forwarded is false when the gate classified the chunk as silence.
	Forwarded bool   `json:"forwarded"`
	Reason    string `json:"reason,omitempty"`
	State     string `json:"state"`
}

type StopSessionRequest struct {
	Id     uuid.UUID
	Reason string `json:"reason"`
}

type AbortSessionRequest struct {
	Id     uuid.UUID
	Reason string `json:"reason"`
}

type SegmentResponse struct {
	Id         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	StartMs    int64     `json:"start_ms"`
	EndMs      int64     `json:"end_ms"`
	Confidence float64   `json:"confidence"`
	OutOfOrder bool      `json:"out_of_order,omitempty"`
}

type TranscriptResponse struct {
	SessionId uuid.UUID         `json:"session_id"`
	State     string            `json:"state"`
	Text      string            `json:"text"`
	Segments  []SegmentResponse `json:"segments"`
}

type EnrichmentResultResponse struct {
	Stage       string                 `json:"stage"`
	Status      string                 `json:"status"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
	StartedAt   *time.Time             `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at"`
}

type SessionResultsResponse struct {
	SessionId uuid.UUID                  `json:"session_id"`
	State     string                     `json:"state"`
	Results   []EnrichmentResultResponse `json:"results"`
}

type SemanticSearchResponse struct {
	SegmentId  uuid.UUID `json:"segment_id"`
	SessionId  uuid.UUID `json:"session_id"`
	Document   string    `json:"document"`
	Similarity float64   `json:"similarity"`
}

// PublishEmbedSegmentMessage is the queue payload that asks the consumer to
// (re)embed one committed segment.
type PublishEmbedSegmentMessage struct {
	SegmentId uuid.UUID `json:"segment_id"`
}
