package mapper

import (
	"encoding/json"

	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/model"

	"gorm.io/datatypes"
)

type LedgerEntryMapper struct{}

func NewLedgerEntryMapper() *LedgerEntryMapper {
	return &LedgerEntryMapper{}
}

func (m *LedgerEntryMapper) ToEntity(e *model.LedgerEntry) *entity.LedgerEntry {
	if e == nil {
		return nil
	}

	var payload map[string]interface{}
	if len(e.Payload) > 0 {
		// A corrupt payload column is unrecoverable here; readers tolerate nil.
		_ = json.Unmarshal(e.Payload, &payload)
	}

	return &entity.LedgerEntry{
		Id:        e.Id,
		SessionId: e.SessionId,
		TraceId:   e.TraceId,
		EventType: e.EventType,
		Sequence:  e.Sequence,
		DedupeKey: e.DedupeKey,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
	}
}

func (m *LedgerEntryMapper) ToModel(e *entity.LedgerEntry) *model.LedgerEntry {
	if e == nil {
		return nil
	}

	var payload datatypes.JSON
	if e.Payload != nil {
		if raw, err := json.Marshal(e.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	return &model.LedgerEntry{
		Id:        e.Id,
		SessionId: e.SessionId,
		TraceId:   e.TraceId,
		EventType: e.EventType,
		Sequence:  e.Sequence,
		DedupeKey: e.DedupeKey,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
	}
}

func (m *LedgerEntryMapper) ToEntities(entries []*model.LedgerEntry) []*entity.LedgerEntry {
	entities := make([]*entity.LedgerEntry, len(entries))
	for i, e := range entries {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
