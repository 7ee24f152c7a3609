package mapper

import (
	"encoding/json"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"

	"gorm.io/datatypes"
)

type EnrichmentResultMapper struct{}

func NewEnrichmentResultMapper() *EnrichmentResultMapper {
	return &EnrichmentResultMapper{}
}

func (m *EnrichmentResultMapper) ToEntity(r *model.EnrichmentResult) *entity.EnrichmentResult {
	if r == nil {
		return nil
	}

	var payload map[string]interface{}
	if len(r.Payload) > 0 {
		_ = json.Unmarshal(r.Payload, &payload)
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.EnrichmentResult{
		Id:          r.Id,
		SessionId:   r.SessionId,
		Stage:       r.Stage,
		Status:      entity.EnrichmentStatus(r.Status),
		Payload:     payload,
		ErrorDetail: r.ErrorDetail,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *EnrichmentResultMapper) ToModel(r *entity.EnrichmentResult) *model.EnrichmentResult {
	if r == nil {
		return nil
	}

	var payload datatypes.JSON
	if r.Payload != nil {
		if raw, err := json.Marshal(r.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.EnrichmentResult{
		Id:          r.Id,
		SessionId:   r.SessionId,
		Stage:       r.Stage,
		Status:      string(r.Status),
		Payload:     payload,
		ErrorDetail: r.ErrorDetail,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *EnrichmentResultMapper) ToEntities(results []*model.EnrichmentResult) []*entity.EnrichmentResult {
	entities := make([]*entity.EnrichmentResult, len(results))
	for i, r := range results {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
