package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "segment_final").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// SessionEvent is the wire envelope for one ledger entry. It carries the
// per-session sequence so subscribers can detect replays and order events.
type SessionEvent struct {
	SessionID  uuid.UUID              `json:"session_id"`
	TraceID    uuid.UUID              `json:"trace_id"`
	Type       string                 `json:"type"`
	Sequence   int64                  `json:"sequence"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e SessionEvent) EventType() string {
	return e.Type
}

func (e SessionEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"session_id":  e.SessionID.String(),
		"trace_id":    e.TraceID.String(),
		"type":        e.Type,
		"sequence":    e.Sequence,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
	for k, v := range e.Data {
		payload[k] = v
	}
	return payload
}

func (e SessionEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// MsgID keys JetStream dedupe so a republished ledger entry is dropped
// server-side.
func (e SessionEvent) MsgID() string {
	return fmt.Sprintf("%s:%d", e.SessionID, e.Sequence)
}
