package mapper

import (
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"
)

type TranscriptSegmentMapper struct{}

func NewTranscriptSegmentMapper() *TranscriptSegmentMapper {
	return &TranscriptSegmentMapper{}
}

func (m *TranscriptSegmentMapper) ToEntity(s *model.TranscriptSegment) *entity.TranscriptSegment {
	if s == nil {
		return nil
	}

	return &entity.TranscriptSegment{
		Id:          s.Id,
		SessionId:   s.SessionId,
		Kind:        entity.SegmentKind(s.Kind),
		Text:        s.Text,
		StartMs:     s.StartMs,
		EndMs:       s.EndMs,
		Confidence:  s.Confidence,
		Fingerprint: s.Fingerprint,
		OutOfOrder:  s.OutOfOrder,
		CreatedAt:   s.CreatedAt,
	}
}

func (m *TranscriptSegmentMapper) ToModel(s *entity.TranscriptSegment) *model.TranscriptSegment {
	if s == nil {
		return nil
	}

	return &model.TranscriptSegment{
		Id:          s.Id,
		SessionId:   s.SessionId,
		Kind:        string(s.Kind),
		Text:        s.Text,
		StartMs:     s.StartMs,
		EndMs:       s.EndMs,
		Confidence:  s.Confidence,
		Fingerprint: s.Fingerprint,
		OutOfOrder:  s.OutOfOrder,
		CreatedAt:   s.CreatedAt,
	}
}

func (m *TranscriptSegmentMapper) ToEntities(segments []*model.TranscriptSegment) []*entity.TranscriptSegment {
	entities := make([]*entity.TranscriptSegment, len(segments))
	for i, s := range segments {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
