package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LedgerEntry struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_session_seq,priority:1;uniqueIndex:idx_ledger_session_dedupe,priority:1"`
	TraceId   uuid.UUID      `gorm:"type:uuid;not null"`
	EventType string         `gorm:"type:varchar(48);not null;index"`
	Sequence  int64          `gorm:"not null;uniqueIndex:idx_ledger_session_seq,priority:2"`
	DedupeKey string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_ledger_session_dedupe,priority:2"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (LedgerEntry) TableName() string {
	return "session_ledger"
}
