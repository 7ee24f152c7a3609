package model

import (
	"time"

	"github.com/google/uuid"
)

type RecordingSession struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TraceId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	State           string     `gorm:"type:varchar(32);not null;index"`
	StopReason      string     `gorm:"type:varchar(64)"`
	SegmentCount    int        `gorm:"not null;default:0"`
	AudioDurationMs int64      `gorm:"not null;default:0"`
	AvgConfidence   float64    `gorm:"not null;default:0"`
	StartedAt       *time.Time
	FinalizedAt     *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (RecordingSession) TableName() string {
	return "recording_sessions"
}
