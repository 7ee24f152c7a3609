package entity

import (
	"time"

	"github.com/google/uuid"
)

// Ledger event types. These are wire vocabulary: once a type has been
// written to a ledger they must never be renamed or removed.
const (
	EventRecordStart               = "record_start"
	EventSegmentInterim            = "segment_interim"
	EventSegmentFinal              = "segment_final"
	EventSegmentFailed             = "segment_failed"
	EventRecordStop                = "record_stop"
	EventSessionFinalized          = "session_finalized"
	EventStageStarted              = "stage_started"
	EventStageReady                = "stage_ready"
	EventStageFailed               = "stage_failed"
	EventSessionCompleted          = "session_completed"
	EventSessionPartiallyCompleted = "session_partially_completed"
	EventSessionFailed             = "session_failed"
)

// LedgerEntry is one append-only row of a session's event history.
// Sequence is monotonic and gapless per session; DedupeKey makes redelivered
// writes idempotent.
type LedgerEntry struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId uuid.UUID `gorm:"type:uuid;index"`
	TraceId   uuid.UUID `gorm:"type:uuid"`
	EventType string
	Sequence  int64
	DedupeKey string
	Payload   map[string]interface{}
	CreatedAt time.Time
}

// DedupeKeyFor derives the idempotency key for an event. Lifecycle events
// occur at most once per session, so the type alone suffices; stage and
// segment events carry their discriminator.
func DedupeKeyFor(eventType, discriminator string) string {
	if discriminator == "" {
		return eventType
	}
	return eventType + ":" + discriminator
}
