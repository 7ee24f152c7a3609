package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EnrichmentResult struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrichment_session_stage,priority:1"`
	Stage       string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_enrichment_session_stage,priority:2"`
	Status      string         `gorm:"type:varchar(16);not null;index"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	ErrorDetail string         `gorm:"type:text"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (EnrichmentResult) TableName() string {
	return "enrichment_results"
}
