package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID scopes a query to one recording session.
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// OwnedByUser scopes recording_sessions rows to their owner.
type OwnedByUser struct {
	UserID uuid.UUID
}

func (s OwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByState filters sessions by lifecycle state.
type ByState struct {
	State string
}

func (s ByState) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state = ?", s.State)
}

// ByKind filters transcript segments by interim/final.
type ByKind struct {
	Kind string
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

// ByEventType filters ledger entries by event type.
type ByEventType struct {
	EventType string
}

func (s ByEventType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("event_type = ?", s.EventType)
}

// ByDedupeKey filters ledger entries by idempotency key.
type ByDedupeKey struct {
	DedupeKey string
}

func (s ByDedupeKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("dedupe_key = ?", s.DedupeKey)
}

// SequenceAfter selects ledger entries strictly beyond a consumer's
// last seen sequence. Zero replays from the beginning.
type SequenceAfter struct {
	After int64
}

func (s SequenceAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sequence > ?", s.After)
}

// ByStage filters enrichment results by stage name.
type ByStage struct {
	Stage string
}

func (s ByStage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage = ?", s.Stage)
}
