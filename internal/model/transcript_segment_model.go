package model

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptSegment struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;index:idx_segment_session_start,priority:1"`
	Kind        string    `gorm:"type:varchar(16);not null"`
	Text        string    `gorm:"type:text;not null"`
	StartMs     int64     `gorm:"not null;index:idx_segment_session_start,priority:2"`
	EndMs       int64     `gorm:"not null"`
	Confidence  float64   `gorm:"not null;default:0"`
	Fingerprint string    `gorm:"type:varchar(64);not null;index"`
	OutOfOrder  bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (TranscriptSegment) TableName() string {
	return "transcript_segments"
}
