package mapper

import (
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
)

type RecordingSessionMapper struct{}

func NewRecordingSessionMapper() *RecordingSessionMapper {
	return &RecordingSessionMapper{}
}

func (m *RecordingSessionMapper) ToEntity(s *model.RecordingSession) *entity.RecordingSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.RecordingSession{
		Id:              s.Id,
		TraceId:         s.TraceId,
		UserId:          s.UserId,
		State:           entity.SessionState(s.State),
		StopReason:      s.StopReason,
		SegmentCount:    s.SegmentCount,
		AudioDurationMs: s.AudioDurationMs,
		AvgConfidence:   s.AvgConfidence,
		StartedAt:       s.StartedAt,
		FinalizedAt:     s.FinalizedAt,
		CompletedAt:     s.CompletedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *RecordingSessionMapper) ToModel(s *entity.RecordingSession) *model.RecordingSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.RecordingSession{
		Id:              s.Id,
		TraceId:         s.TraceId,
		UserId:          s.UserId,
		State:           string(s.State),
		StopReason:      s.StopReason,
		SegmentCount:    s.SegmentCount,
		AudioDurationMs: s.AudioDurationMs,
		AvgConfidence:   s.AvgConfidence,
		StartedAt:       s.StartedAt,
		FinalizedAt:     s.FinalizedAt,
		CompletedAt:     s.CompletedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *RecordingSessionMapper) ToEntities(sessions []*model.RecordingSession) []*entity.RecordingSession {
	entities := make([]*entity.RecordingSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
